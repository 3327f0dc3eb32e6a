// Package pipeline sequences one submission end to end: validate, persist
// history, upload media, extract and normalize fields, publish the product,
// then link taxonomy and attach metadata. The first four stages are fatal
// on failure; the last two are absorbed into partial-success counts.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"listing-backend/internal/model"
	"listing-backend/internal/normalize"
)

// State is the pipeline's position in its linear state machine.
type State string

const (
	StateReceived         State = "received"
	StateValidated        State = "validated"
	StateMediaUploaded    State = "media_uploaded"
	StateFieldsExtracted  State = "fields_extracted"
	StateFieldsNormalized State = "fields_normalized"
	StatePublished        State = "published"
	StateTaxonomyLinked   State = "taxonomy_linked"
	StateAnnotated        State = "annotated"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

// ValidationError reports a submission that violates the intake invariant.
// No external call has been made when this is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "pipeline: invalid submission: " + e.Reason
}

// Uploader stores one image and returns its hosted URL.
type Uploader interface {
	Upload(ctx context.Context, img model.SubmissionImage) (string, error)
}

// Extractor derives structured fields from raw vendor text.
type Extractor interface {
	Extract(ctx context.Context, rawText string) (*model.ExtractedFields, error)
}

// Publisher creates the storefront product.
type Publisher interface {
	CreateProduct(ctx context.Context, f *model.NormalizedFields, media []model.MediaReference) (*model.PublishedProduct, error)
}

// Linker links the product into named collections; returns how many linked.
type Linker interface {
	EnsureLinked(ctx context.Context, productID int64, names []string) int
}

// Annotator attaches metadata; returns attached and attempted counts.
type Annotator interface {
	Annotate(ctx context.Context, productID int64, fields map[string]string) (attached, attempted int)
}

// History persists submission records and the vendor registry.
type History interface {
	SaveSubmission(ctx context.Context, sub *model.Submission) (uuid.UUID, error)
	EnsureVendor(ctx context.Context, name string) (bool, error)
}

// EventSink publishes listing events. Publishing is fire-and-forget; a
// failed publish never affects the pipeline result.
type EventSink interface {
	PublishListingAccepted(ctx context.Context, evt model.ListingAccepted) error
}

// Result aggregates everything one submission produced.
type Result struct {
	State               State
	LocalID             uuid.UUID
	Product             *model.PublishedProduct
	Fields              *model.NormalizedFields
	ImagesUploaded      int
	ImagesFailed        int
	CollectionsLinked   int
	MetafieldsAdded     int
	MetafieldsAttempted int
}

// Pipeline runs submissions. Safe for concurrent use; each run is
// independent with no shared mutable state.
type Pipeline struct {
	history   History
	media     Uploader
	extractor Extractor
	publisher Publisher
	taxonomy  Linker
	annotator Annotator
	events    EventSink // optional
	log       *zap.Logger
}

// New wires a pipeline. events may be nil.
func New(history History, media Uploader, extractor Extractor, publisher Publisher, taxonomy Linker, annotator Annotator, events EventSink, log *zap.Logger) *Pipeline {
	return &Pipeline{
		history:   history,
		media:     media,
		extractor: extractor,
		publisher: publisher,
		taxonomy:  taxonomy,
		annotator: annotator,
		events:    events,
		log:       log,
	}
}

// Run processes one submission to completion or fatal failure. The
// returned Result is valid in both cases; on error its State records how
// far the pipeline got.
func (p *Pipeline) Run(ctx context.Context, req *model.CreateSubmissionRequest) (*Result, error) {
	res := &Result{State: StateReceived}

	sub, err := p.validate(req)
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	res.State = StateValidated

	// History is written before any external call, mirroring the intake
	// contract: the record exists even if the pipeline later fails.
	localID, err := p.history.SaveSubmission(ctx, sub)
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	res.LocalID = localID
	if _, err := p.history.EnsureVendor(ctx, sub.Vendor); err != nil {
		p.log.Warn("vendor registry update failed", zap.Error(err))
	}

	media, failed, err := p.uploadAll(ctx, sub.Images)
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	res.ImagesUploaded = len(media)
	res.ImagesFailed = failed
	res.State = StateMediaUploaded

	extracted, err := p.extractor.Extract(ctx, sub.Description)
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	res.State = StateFieldsExtracted

	fields := normalize.Normalize(extracted, sub.Vendor)
	res.Fields = fields
	res.State = StateFieldsNormalized

	product, err := p.publisher.CreateProduct(ctx, fields, media)
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	res.Product = product
	res.State = StatePublished

	p.publishEvent(ctx, localID, sub, fields, product)

	// Taxonomy and metadata cannot fail the pipeline; their errors are
	// absorbed at origin and surface only as counts.
	res.CollectionsLinked = p.taxonomy.EnsureLinked(ctx, product.ID, taxonomyNames(fields))
	res.State = StateTaxonomyLinked

	res.MetafieldsAdded, res.MetafieldsAttempted = p.annotator.Annotate(ctx, product.ID, metafieldMap(fields))
	res.State = StateAnnotated

	res.State = StateCompleted
	p.log.Info("submission completed",
		zap.String("submission_id", localID.String()),
		zap.Int64("product_id", product.ID),
		zap.Int("images_uploaded", res.ImagesUploaded),
		zap.Int("collections_linked", res.CollectionsLinked),
		zap.Int("metafields_added", res.MetafieldsAdded),
	)
	return res, nil
}

// validate enforces the submission invariant: non-empty sender, non-empty
// trimmed description, at least one image.
func (p *Pipeline) validate(req *model.CreateSubmissionRequest) (*model.Submission, error) {
	sender := strings.TrimSpace(req.Sender)
	description := strings.TrimSpace(req.Description)

	switch {
	case sender == "":
		return nil, &ValidationError{Reason: "sender is required"}
	case description == "":
		return nil, &ValidationError{Reason: "description is required"}
	case len(req.Images) == 0:
		return nil, &ValidationError{Reason: "at least one image is required"}
	}

	vendor := strings.TrimSpace(req.Vendor)
	if vendor == "" {
		vendor = model.DefaultVendor
	}

	return &model.Submission{
		Sender:      sender,
		Description: description,
		Vendor:      strings.ToUpper(vendor),
		Images:      req.Images,
		ReceivedAt:  time.Now().UTC(),
	}, nil
}

// uploadAll uploads every image, skipping individual failures. Positions
// mirror the surviving upload order so captions stay contiguous. Fatal only
// when every upload fails.
func (p *Pipeline) uploadAll(ctx context.Context, images []model.SubmissionImage) ([]model.MediaReference, int, error) {
	refs := make([]model.MediaReference, 0, len(images))
	var lastErr error
	failed := 0

	for _, img := range images {
		url, err := p.media.Upload(ctx, img)
		if err != nil {
			failed++
			lastErr = err
			p.log.Warn("image skipped",
				zap.String("filename", img.Filename),
				zap.Error(err),
			)
			continue
		}
		refs = append(refs, model.MediaReference{URL: url, Position: len(refs) + 1})
	}

	if len(refs) == 0 {
		return nil, failed, fmt.Errorf("pipeline: all %d image uploads failed: %w", len(images), lastErr)
	}
	return refs, failed, nil
}

// taxonomyNames is the set of collection titles the product links into:
// the extracted collections plus the category, de-duplicated
// case-insensitively with first-seen casing kept.
func taxonomyNames(f *model.NormalizedFields) []string {
	seen := make(map[string]struct{}, len(f.Collections)+1)
	out := make([]string, 0, len(f.Collections)+1)
	for _, name := range append(append([]string{}, f.Collections...), f.Category) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// metafieldMap picks the auxiliary attributes worth annotating. Blank
// values are dropped downstream by the annotator.
func metafieldMap(f *model.NormalizedFields) map[string]string {
	return map[string]string{
		"fabric":            f.Fabric,
		"style":             f.Style,
		"pattern":           f.Pattern,
		"work_details":      f.WorkDetails,
		"colour":            f.Colour,
		"size_guide":        f.SizeGuide,
		"care_instructions": f.CareInstructions,
		"profit_margin":     f.ProfitMargin,
	}
}

func (p *Pipeline) publishEvent(ctx context.Context, localID uuid.UUID, sub *model.Submission, fields *model.NormalizedFields, product *model.PublishedProduct) {
	if p.events == nil {
		return
	}
	evt := model.ListingAccepted{
		SubmissionID:     localID.String(),
		Sender:           sub.Sender,
		Vendor:           sub.Vendor,
		ShopifyProductID: product.ID,
		Title:            product.Title,
		Price:            product.Price,
		CompareAtPrice:   product.CompareAtPrice,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.events.PublishListingAccepted(ctx, evt); err != nil {
		// Fire-and-forget: the event stream is observability, not state.
		p.log.Warn("listing event publish failed", zap.Error(err))
	}
}
