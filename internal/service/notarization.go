package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"notaryapi/internal/apperr"
	"notaryapi/internal/chain"
	"notaryapi/internal/email"
	"notaryapi/internal/encryption"
	"notaryapi/internal/model"
	"notaryapi/internal/pinning"
	"notaryapi/internal/repository"
	"notaryapi/internal/storage"
	"notaryapi/internal/workflow"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UploadFile is one incoming multipart file, streamed through to object
// storage without touching local disk.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// CreateDocumentParams carries a new notarization request.
type CreateDocumentParams struct {
	UserID              string
	Requester           model.RequesterInfo
	NotarizationField   string
	NotarizationService string
	Amount              int64
	Files               []UploadFile
}

// ForwardParams carries one accept/reject decision on a document.
type ForwardParams struct {
	DocumentID  string
	ActorID     string
	ActorRole   string
	Action      string
	Feedback    string
	OutputFiles []UploadFile
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentStatusResult bundles the current status with the audit trail.
type DocumentStatusResult struct {
	Status   string                 `json:"status"`
	Tracking []model.StatusTracking `json:"tracking"`
}

// NotarizationService defines the use cases around the document workflow.
type NotarizationService interface {
	// CreateDocument validates the request, uploads the files, and persists
	// the document in status pending.
	CreateDocument(ctx context.Context, p CreateDocumentParams) (*model.Document, error)

	// ForwardStatus applies one accept/reject decision. The transition table
	// decides legality before any write; the update itself is a conditional
	// compare-and-swap on the current status.
	ForwardStatus(ctx context.Context, p ForwardParams) (*model.Document, error)

	// ApproveSignatureByUser stores the uploaded signature image and flips
	// the user approval flag.
	ApproveSignatureByUser(ctx context.Context, documentID string, image UploadFile) (*model.RequestSignature, error)

	// ApproveSignatureByNotary flips the notary approval flag.
	ApproveSignatureByNotary(ctx context.Context, documentID string) (*model.RequestSignature, error)

	// Get returns one document by ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Status returns the current status plus the append-only audit trail.
	Status(ctx context.Context, id string) (*DocumentStatusResult, error)

	// ListByStatus returns the work queue for a role, filtered on status.
	ListByStatus(ctx context.Context, status string, limit, offset int) (*DocumentListResult, error)

	// HistoryByUser returns a requester's own documents.
	HistoryByUser(ctx context.Context, userID string, limit, offset int) (*DocumentListResult, error)

	// ListAll returns every document, newest first.
	ListAll(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// StatusMetrics aggregates document counts per status.
	StatusMetrics(ctx context.Context) ([]repository.StatusCount, error)

	// AutoVerify promotes documents stuck in pending past the staleness
	// cutoff, acting as the system, and retries the settlement setup for
	// accepted documents that never got a checkout link. Returns how many
	// documents were acted on.
	AutoVerify(ctx context.Context) (int, error)

	// MintForPayment issues the proof-of-notarization token for a settled
	// document payment and credits the requester's wallet. Safe to call more
	// than once for the same payment.
	MintForPayment(ctx context.Context, pay *model.Payment) error
}

// NotarizationDeps groups the collaborators of the notarization service.
// Encrypt may be nil, in which case documents are pinned in the clear.
type NotarizationDeps struct {
	Docs       repository.DocumentRepository
	Signatures repository.SignatureRepository
	Wallet     repository.WalletRepository
	Store      storage.Storage
	Pin        pinning.Service
	Encrypt    encryption.Service
	RPC        chain.RPCClient
	Minter     chain.Minter
	Payments   PaymentService
	Mail       email.Sender

	ServiceWallet      string
	MinBalanceLamports int64
	PolicyVersion      string
	StaleAfter         time.Duration
}

type notarizationService struct {
	deps NotarizationDeps
	now  func() time.Time
}

// NewNotarizationService constructs a NotarizationService.
func NewNotarizationService(deps NotarizationDeps) NotarizationService {
	return &notarizationService{deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

func (s *notarizationService) CreateDocument(ctx context.Context, p CreateDocumentParams) (*model.Document, error) {
	if err := validateCreate(p); err != nil {
		return nil, err
	}

	docID := uuid.New().String()
	keys, err := s.uploadAll(ctx, filepath.ToSlash(filepath.Join("documents", docID)), p.Files)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc := &model.Document{
		ID:                  docID,
		UserID:              p.UserID,
		Requester:           p.Requester,
		NotarizationField:   p.NotarizationField,
		NotarizationService: p.NotarizationService,
		Amount:              p.Amount,
		Files:               keys,
		Status:              model.StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	stored, err := s.deps.Docs.Create(ctx, doc)
	if err != nil {
		// Rollback: remove the uploaded objects so storage does not leak.
		for _, key := range keys {
			if delErr := s.deps.Store.Delete(ctx, key); delErr != nil {
				log.Printf(`{"level":"warn","msg":"rollback delete failed","key":%q}`, key)
			}
		}
		return nil, fmt.Errorf("save document: %w", err)
	}
	return stored, nil
}

func validateCreate(p CreateDocumentParams) error {
	switch {
	case p.UserID == "":
		return fmt.Errorf("%w: user id is required", apperr.ErrValidation)
	case p.Requester.FullName == "":
		return fmt.Errorf("%w: requester full name is required", apperr.ErrValidation)
	case !emailRe.MatchString(p.Requester.Email):
		return fmt.Errorf("%w: invalid requester email", apperr.ErrValidation)
	case p.NotarizationField == "" || p.NotarizationService == "":
		return fmt.Errorf("%w: notarization field and service are required", apperr.ErrValidation)
	case p.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", apperr.ErrValidation)
	case len(p.Files) == 0:
		return fmt.Errorf("%w: at least one file is required", apperr.ErrValidation)
	}
	return nil
}

// uploadAll streams the files into object storage under prefix. Already
// uploaded objects are deleted again if a later upload fails.
func (s *notarizationService) uploadAll(ctx context.Context, prefix string, files []UploadFile) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		if f.Reader == nil {
			return nil, fmt.Errorf("%w: file %q has no content", apperr.ErrValidation, f.Name)
		}
		key := prefix + "/" + uuid.New().String() + filepath.Ext(f.Name)
		_, err := s.deps.Store.Put(ctx, key, f.Reader, storage.PutObjectOptions{
			Size:        f.Size,
			ContentType: f.ContentType,
			Metadata:    map[string]string{"original-filename": f.Name},
		})
		if err != nil {
			for _, k := range keys {
				_ = s.deps.Store.Delete(ctx, k)
			}
			return nil, fmt.Errorf("%w: upload %s: %v", apperr.ErrExternalService, f.Name, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *notarizationService) ForwardStatus(ctx context.Context, p ForwardParams) (*model.Document, error) {
	if p.Action == workflow.ActionReject && p.Feedback == "" {
		return nil, fmt.Errorf("%w: feedback is required to reject", apperr.ErrInvalidTransition)
	}

	doc, err := s.findDoc(ctx, p.DocumentID)
	if err != nil {
		return nil, err
	}

	next, err := workflow.Next(doc.Status, p.ActorRole, p.Action)
	if err != nil {
		return nil, err
	}

	// The final acceptance is gated on both signature flags.
	if next == model.StatusAccepted {
		sig, err := s.deps.Signatures.FindByDocumentID(ctx, p.DocumentID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !sig.CoSigned()) {
			return nil, fmt.Errorf("%w: both user and notary signatures are required", apperr.ErrInvalidTransition)
		}
		if err != nil {
			return nil, err
		}
	}

	var outputKeys []string
	if len(p.OutputFiles) > 0 && p.Action == workflow.ActionAccept {
		prefix := filepath.ToSlash(filepath.Join("documents", p.DocumentID, "output"))
		outputKeys, err = s.uploadAll(ctx, prefix, p.OutputFiles)
		if err != nil {
			return nil, err
		}
	}

	err = s.deps.Docs.ForwardStatus(ctx, repository.ForwardStatusParams{
		DocumentID:  p.DocumentID,
		FromStatus:  doc.Status,
		ToStatus:    next,
		ActorID:     p.ActorID,
		ActorRole:   p.ActorRole,
		Feedback:    p.Feedback,
		OutputFiles: outputKeys,
	})
	if err != nil {
		// Nothing references the uploads once the transition failed.
		for _, k := range outputKeys {
			_ = s.deps.Store.Delete(ctx, k)
		}
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: document %s", apperr.ErrNotFound, p.DocumentID)
	case errors.Is(err, repository.ErrStatusChanged):
		return nil, fmt.Errorf("%w: document status changed concurrently", apperr.ErrConflict)
	case err != nil:
		return nil, err
	}

	updated, err := s.findDoc(ctx, p.DocumentID)
	if err != nil {
		return nil, err
	}

	// The status change above is never rolled back. If the settlement setup
	// fails the document stays accepted, the error surfaces, and the
	// scheduled sweep retries the setup via ListAcceptedUnfinalized.
	if next == model.StatusAccepted {
		if err := s.finalizeAccepted(ctx, updated); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// finalizeAccepted pins the notarized content plus its metadata, then creates
// the payment whose settlement triggers the mint.
func (s *notarizationService) finalizeAccepted(ctx context.Context, doc *model.Document) error {
	if doc.MetadataURI == "" {
		uri, err := s.pinDocument(ctx, doc)
		if err != nil {
			return err
		}
		if err := s.deps.Docs.SetMetadataURI(ctx, doc.ID, uri); err != nil {
			return fmt.Errorf("store metadata uri: %w", err)
		}
		doc.MetadataURI = uri
	}

	pay, err := s.deps.Payments.CreateForDocument(ctx, doc)
	if err != nil {
		return err
	}

	if mailErr := s.deps.Mail.Send(ctx, doc.Requester.Email, email.TemplateCheckoutLink, map[string]string{
		"filename":     doc.NotarizationService,
		"checkout_url": pay.CheckoutURL,
	}); mailErr != nil {
		log.Printf(`{"level":"warn","msg":"checkout email failed","document_id":%q}`, doc.ID)
	}
	return nil
}

// pinDocument reads the notarized content, encrypts it when a strategy is
// configured, pins it, and pins a metadata record pointing at it.
func (s *notarizationService) pinDocument(ctx context.Context, doc *model.Document) (string, error) {
	key := ""
	if n := len(doc.OutputFiles); n > 0 {
		key = doc.OutputFiles[n-1]
	} else if len(doc.Files) > 0 {
		key = doc.Files[0]
	}
	if key == "" {
		return "", fmt.Errorf("%w: document %s has no content to pin", apperr.ErrInternal, doc.ID)
	}

	rc, _, err := s.deps.Store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", apperr.ErrExternalService, key, err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", apperr.ErrExternalService, key, err)
	}

	if s.deps.Encrypt != nil {
		sealed, err := s.deps.Encrypt.Encrypt(ctx, content, encryption.AccessPolicy{
			Version:    s.deps.PolicyVersion,
			DocumentID: doc.ID,
			AllowedIDs: []string{doc.UserID},
		})
		if err != nil {
			return "", err
		}
		content = sealed.Ciphertext
	}

	fileURI, err := s.deps.Pin.Pin(ctx, bytes.NewReader(content), filepath.Base(key))
	if err != nil {
		return "", err
	}

	meta, err := json.Marshal(map[string]any{
		"name":        doc.NotarizationService,
		"description": "Notarized document for " + doc.Requester.FullName,
		"file":        fileURI,
		"document_id": doc.ID,
	})
	if err != nil {
		return "", err
	}
	return s.deps.Pin.Pin(ctx, bytes.NewReader(meta), doc.ID+".json")
}

func (s *notarizationService) ApproveSignatureByUser(ctx context.Context, documentID string, image UploadFile) (*model.RequestSignature, error) {
	doc, err := s.findDoc(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StatusPendingSignature {
		return nil, fmt.Errorf("%w: document is not awaiting signatures", apperr.ErrInvalidTransition)
	}
	if image.Reader == nil {
		return nil, fmt.Errorf("%w: signature image is required", apperr.ErrValidation)
	}

	key := filepath.ToSlash(filepath.Join("signatures", documentID, uuid.New().String()+filepath.Ext(image.Name)))
	if _, err := s.deps.Store.Put(ctx, key, image.Reader, storage.PutObjectOptions{
		Size:        image.Size,
		ContentType: image.ContentType,
	}); err != nil {
		return nil, fmt.Errorf("%w: upload signature image: %v", apperr.ErrExternalService, err)
	}
	return s.deps.Signatures.ApproveByUser(ctx, documentID, key)
}

func (s *notarizationService) ApproveSignatureByNotary(ctx context.Context, documentID string) (*model.RequestSignature, error) {
	doc, err := s.findDoc(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StatusPendingSignature {
		return nil, fmt.Errorf("%w: document is not awaiting signatures", apperr.ErrInvalidTransition)
	}
	return s.deps.Signatures.ApproveByNotary(ctx, documentID)
}

func (s *notarizationService) Get(ctx context.Context, id string) (*model.Document, error) {
	return s.findDoc(ctx, id)
}

func (s *notarizationService) Status(ctx context.Context, id string) (*DocumentStatusResult, error) {
	doc, err := s.findDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	tracking, err := s.deps.Docs.TrackingByDocumentID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentStatusResult{Status: doc.Status, Tracking: tracking}, nil
}

func (s *notarizationService) ListByStatus(ctx context.Context, status string, limit, offset int) (*DocumentListResult, error) {
	return s.list(ctx, repository.DocumentFilter{Status: status}, limit, offset)
}

func (s *notarizationService) HistoryByUser(ctx context.Context, userID string, limit, offset int) (*DocumentListResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperr.ErrValidation)
	}
	return s.list(ctx, repository.DocumentFilter{UserID: userID}, limit, offset)
}

func (s *notarizationService) ListAll(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	return s.list(ctx, repository.DocumentFilter{}, limit, offset)
}

func (s *notarizationService) list(ctx context.Context, f repository.DocumentFilter, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.deps.Docs.List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *notarizationService) StatusMetrics(ctx context.Context) ([]repository.StatusCount, error) {
	return s.deps.Docs.CountByStatus(ctx)
}

// SystemActorID marks status changes made by the scheduler, not a person.
const SystemActorID = "system"

func (s *notarizationService) AutoVerify(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.deps.StaleAfter)
	stale, err := s.deps.Docs.ListStaleByStatus(ctx, model.StatusPending, cutoff)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, doc := range stale {
		err := s.deps.Docs.ForwardStatus(ctx, repository.ForwardStatusParams{
			DocumentID: doc.ID,
			FromStatus: model.StatusPending,
			ToStatus:   model.StatusProcessing,
			ActorID:    SystemActorID,
			ActorRole:  model.RoleSecretary,
			Feedback:   "auto-verified after staleness cutoff",
		})
		switch {
		case errors.Is(err, repository.ErrStatusChanged), errors.Is(err, sql.ErrNoRows):
			// Someone moved it first. That is the point of the CAS.
			continue
		case err != nil:
			return moved, err
		}
		moved++
	}

	// Second pass: acceptances whose settlement setup failed partway.
	// finalizeAccepted is idempotent, so re-running it only fills the gaps
	// (missing metadata URI, missing checkout link).
	stuck, err := s.deps.Docs.ListAcceptedUnfinalized(ctx)
	if err != nil {
		return moved, err
	}
	for _, doc := range stuck {
		d := doc
		if err := s.finalizeAccepted(ctx, &d); err != nil {
			log.Printf(`{"level":"warn","msg":"finalize retry failed","document_id":%q,"error":%q}`,
				doc.ID, err.Error())
			continue
		}
		moved++
	}
	return moved, nil
}

func (s *notarizationService) MintForPayment(ctx context.Context, pay *model.Payment) error {
	if pay.DocumentID == "" {
		return nil
	}
	doc, err := s.findDoc(ctx, pay.DocumentID)
	if err != nil {
		return err
	}
	if doc.MintAddress != "" {
		return nil
	}
	if doc.MetadataURI == "" {
		return fmt.Errorf("%w: document %s has no metadata uri", apperr.ErrInternal, doc.ID)
	}

	balance, err := s.deps.RPC.GetBalance(ctx, s.deps.ServiceWallet)
	if err != nil {
		return fmt.Errorf("%w: check service wallet balance: %v", apperr.ErrExternalService, err)
	}
	if balance < s.deps.MinBalanceLamports {
		return fmt.Errorf("%w: service wallet balance %d below minimum %d",
			apperr.ErrExternalService, balance, s.deps.MinBalanceLamports)
	}

	var res *chain.MintResult
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := s.deps.Minter.CreateNFT(ctx, doc.NotarizationService, doc.MetadataURI)
		if err != nil {
			return retry.RetryableError(err)
		}
		res = r
		return nil
	})
	if err != nil {
		return fmt.Errorf("mint document %s: %w", doc.ID, err)
	}

	err = s.deps.Docs.SetMintResult(ctx, doc.ID, res.MintAddress, res.TxSignature)
	if errors.Is(err, repository.ErrStatusChanged) {
		// A concurrent settlement already recorded a mint.
		return nil
	}
	if err != nil {
		return err
	}

	now := s.now()
	_, err = s.deps.Wallet.Insert(ctx, &model.WalletItem{
		ID:              uuid.New().String(),
		UserID:          doc.UserID,
		MintAddress:     res.MintAddress,
		MetadataAddress: res.MetadataAddress,
		TxSignature:     res.TxSignature,
		Filename:        doc.NotarizationService,
		MetadataURI:     doc.MetadataURI,
		Amount:          1,
		ExplorerLink:    res.ExplorerLink,
		SolscanLink:     res.SolscanLink,
		IPFSLink:        s.deps.Pin.GatewayLink(doc.MetadataURI),
		MintedAt:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil && !errors.Is(err, repository.ErrDuplicateMint) {
		return fmt.Errorf("credit wallet for document %s: %w", doc.ID, err)
	}

	if mailErr := s.deps.Mail.Send(ctx, doc.Requester.Email, email.TemplateDocumentDone, map[string]string{
		"filename":      doc.NotarizationService,
		"explorer_link": res.ExplorerLink,
	}); mailErr != nil {
		log.Printf(`{"level":"warn","msg":"completion email failed","document_id":%q}`, doc.ID)
	}
	return nil
}

func (s *notarizationService) findDoc(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", apperr.ErrValidation)
	}
	doc, err := s.deps.Docs.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
