// Package intake drives label intake against the inventory service: the
// add-entry upsert and the point actions on resolved records.
package intake

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/glpi"
	"label-intake-api/internal/logging"
	"label-intake-api/internal/models"
	"label-intake-api/internal/resolve"
)

// Session is one authenticated conversation with the inventory service.
type Session interface {
	resolve.Inventory
	Create(ctx context.Context, itemType string, changes models.AssetChanges) (int, error)
	Update(ctx context.Context, itemType string, id int, changes models.AssetChanges) error
	Close(ctx context.Context) error
}

// Opener starts inventory sessions.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }

// GLPIOpener opens sessions on a GLPI client.
func GLPIOpener(client *glpi.Client) Opener {
	return OpenerFunc(func(ctx context.Context) (Session, error) {
		s, err := client.Open(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Recognizer produces raw text from a label photograph.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// CodeDecoder reads the optional QR or barcode image.
type CodeDecoder interface {
	Decode(ctx context.Context, image []byte) (*string, error)
}

// FieldExtractor parses raw text into identity fields and a type hint.
type FieldExtractor interface {
	Extract(raw string) models.ExtractedFields
	Classify(raw string) models.Classification
}

// Recorder receives outcome counts. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Entry(itemType string, created bool)
	Resolution(kind string, found bool)
	UpstreamFailure(operation string)
}

type nopRecorder struct{}

func (nopRecorder) Entry(string, bool)      {}
func (nopRecorder) Resolution(string, bool) {}
func (nopRecorder) UpstreamFailure(string)  {}

// Service implements add-entry, check-entry, change-location, change-user
// and scan-qr. It keeps no state between calls.
type Service struct {
	inventory       Opener
	ocr             Recognizer
	codes           CodeDecoder
	fields          FieldExtractor
	resolver        resolve.Resolver
	defaultItemType string
	recorder        Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithStrictMatch rejects duplicate search matches instead of using the
// first one.
func WithStrictMatch(strict bool) Option {
	return func(s *Service) { s.resolver.Strict = strict }
}

// WithDefaultItemType sets the item type used when a caller names none.
func WithDefaultItemType(itemType string) Option {
	return func(s *Service) {
		if t := strings.TrimSpace(itemType); t != "" {
			s.defaultItemType = t
		}
	}
}

// WithRecorder installs an outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService wires the collaborators.
func NewService(inventory Opener, ocr Recognizer, codes CodeDecoder, fields FieldExtractor, opts ...Option) *Service {
	s := &Service{
		inventory:       inventory,
		ocr:             ocr,
		codes:           codes,
		fields:          fields,
		defaultItemType: models.DefaultItemType,
		recorder:        nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanQR decodes a code image without touching the inventory.
func (s *Service) ScanQR(ctx context.Context, image []byte) (*models.ScanResult, error) {
	if len(image) == 0 {
		return nil, apperr.Wrap(apperr.ErrValidation, "scan qr", "image required", nil)
	}
	value, err := s.codes.Decode(ctx, image)
	if err != nil {
		return nil, err
	}
	return &models.ScanResult{QRValue: value}, nil
}

func (s *Service) itemType(requested string) string {
	if t := strings.TrimSpace(requested); t != "" {
		return t
	}
	return s.defaultItemType
}

// withSession opens a session, runs fn and always closes the session.
// Close failures are logged and never replace fn's result.
func (s *Service) withSession(ctx context.Context, operation string, fn func(Session) error) error {
	sess, err := s.inventory.Open(ctx)
	if err != nil {
		return s.upstream(operation, err)
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil {
			s.recorder.UpstreamFailure("close")
			logging.FromContext(ctx).Warn("inventory session close failed",
				zap.String("operation", operation), zap.Error(cerr))
		}
	}()
	return s.upstream(operation, fn(sess))
}

func (s *Service) resolve(ctx context.Context, sess Session, itemType string, key resolve.Key) (*models.AssetRecord, error) {
	rec, err := s.resolver.Resolve(ctx, sess, itemType, key)
	if err != nil {
		return nil, err
	}
	s.recorder.Resolution(key.Kind.String(), rec != nil)
	return rec, nil
}

func (s *Service) upstream(operation string, err error) error {
	if errors.Is(err, apperr.ErrUpstream) {
		s.recorder.UpstreamFailure(operation)
	}
	return err
}
