package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notaryapi/internal/apperr"
	"notaryapi/internal/http/middleware"
	"notaryapi/internal/model"
	"notaryapi/internal/repository"
	"notaryapi/internal/service"
	serviceMocks "notaryapi/internal/service/mocks"
)

// asActor injects the identity the auth middleware would have set.
func asActor(userID, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDLocalKey, userID)
		c.Locals(middleware.UserRoleLocalKey, role)
		return c.Next()
	}
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadFiles(t *testing.T) {
	mockSvc := new(serviceMocks.MockNotarizationService)
	app := fiber.New()
	app.Post("/notarization/upload-files", asActor("u1", model.RoleUser), UploadFiles(mockSvc))

	newForm := func(amount string) (*bytes.Buffer, string) {
		buf := new(bytes.Buffer)
		w := multipart.NewWriter(buf)
		w.WriteField("full_name", "Nguyen Van A")
		w.WriteField("citizen_id", "0123456789")
		w.WriteField("phone_number", "+84900000000")
		w.WriteField("email", "a@example.com")
		w.WriteField("notarization_field", "land")
		w.WriteField("notarization_service", "Land title transfer")
		w.WriteField("amount", amount)
		fw, _ := w.CreateFormFile("files", "deed.pdf")
		fw.Write([]byte("pdf-bytes"))
		w.Close()
		return buf, w.FormDataContentType()
	}

	t.Run("created", func(t *testing.T) {
		mockSvc.On("CreateDocument", mock.Anything, mock.MatchedBy(func(p service.CreateDocumentParams) bool {
			return p.UserID == "u1" && p.Requester.Email == "a@example.com" &&
				p.Amount == 150000 && len(p.Files) == 1
		})).Return(&model.Document{ID: "d1", Status: model.StatusPending}, nil).Once()

		buf, ct := newForm("150000")
		req := httptest.NewRequest(http.MethodPost, "/notarization/upload-files", buf)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid amount", func(t *testing.T) {
		buf, ct := newForm("not-a-number")
		req := httptest.NewRequest(http.MethodPost, "/notarization/upload-files", buf)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("validation error from service", func(t *testing.T) {
		mockSvc.On("CreateDocument", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: invalid requester email", apperr.ErrValidation)).Once()

		buf, ct := newForm("150000")
		req := httptest.NewRequest(http.MethodPost, "/notarization/upload-files", buf)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	})
}

func TestForwardDocumentStatus(t *testing.T) {
	newApp := func(mockSvc *serviceMocks.MockNotarizationService, role string) *fiber.App {
		app := fiber.New()
		app.Patch("/notarization/forwardDocumentStatus/:documentId",
			asActor("actor-1", role), ForwardDocumentStatus(mockSvc))
		return app
	}
	jsonReq := func(action, feedback string) *http.Request {
		body, _ := json.Marshal(map[string]string{"action": action, "feedback": feedback})
		req := httptest.NewRequest(http.MethodPatch, "/notarization/forwardDocumentStatus/d1", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("accept moves the document", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockNotarizationService)
		mockSvc.On("ForwardStatus", mock.Anything, mock.MatchedBy(func(p service.ForwardParams) bool {
			return p.DocumentID == "d1" && p.ActorRole == model.RoleSecretary && p.Action == "accept"
		})).Return(&model.Document{ID: "d1", Status: model.StatusProcessing}, nil)

		resp, _ := newApp(mockSvc, model.RoleSecretary).Test(jsonReq("accept", ""))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var doc model.Document
		json.NewDecoder(resp.Body).Decode(&doc)
		assert.Equal(t, model.StatusProcessing, doc.Status)
		mockSvc.AssertExpectations(t)
	})

	t.Run("illegal transition", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockNotarizationService)
		mockSvc.On("ForwardStatus", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: no transition", apperr.ErrInvalidTransition))

		resp, _ := newApp(mockSvc, model.RoleUser).Test(jsonReq("accept", ""))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_TRANSITION", body.Error.Code)
	})

	t.Run("lost race", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockNotarizationService)
		mockSvc.On("ForwardStatus", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: status changed", apperr.ErrConflict))

		resp, _ := newApp(mockSvc, model.RoleSecretary).Test(jsonReq("accept", ""))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("missing document", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockNotarizationService)
		mockSvc.On("ForwardStatus", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: document d1", apperr.ErrNotFound))

		resp, _ := newApp(mockSvc, model.RoleSecretary).Test(jsonReq("accept", ""))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPaymentCallback(t *testing.T) {
	newReq := func(orderCode int64, status string) *http.Request {
		body, _ := json.Marshal(map[string]any{"orderCode": orderCode, "status": status})
		req := httptest.NewRequest(http.MethodPost, "/payments/callback", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("settles", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockPaymentService)
		app := fiber.New()
		app.Post("/payments/callback", PaymentCallback(mockSvc))

		mockSvc.On("HandleCallback", mock.Anything, int64(42), model.LinkPaid).
			Return(&model.Payment{ID: "pay-1", Status: model.PaymentSuccess}, nil)

		resp, _ := app.Test(newReq(42, model.LinkPaid))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var pay model.Payment
		json.NewDecoder(resp.Body).Decode(&pay)
		assert.Equal(t, model.PaymentSuccess, pay.Status)
	})

	t.Run("duplicate callback", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockPaymentService)
		app := fiber.New()
		app.Post("/payments/callback", PaymentCallback(mockSvc))

		mockSvc.On("HandleCallback", mock.Anything, int64(42), model.LinkPaid).
			Return(nil, fmt.Errorf("%w: payment already settled", apperr.ErrConflict))

		resp, _ := app.Test(newReq(42, model.LinkPaid))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestGetWallet(t *testing.T) {
	mockSvc := new(serviceMocks.MockWalletService)
	app := fiber.New()
	app.Get("/userWallet/wallet", asActor("u1", model.RoleUser), GetWallet(mockSvc))

	mockSvc.On("GetWallet", mock.Anything, "u1").
		Return(&service.WalletResult{Items: []model.WalletItem{{ID: "w1", MintAddress: "mint-1"}}, Total: 1}, nil)

	req := httptest.NewRequest(http.MethodGet, "/userWallet/wallet", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var res service.WalletResult
	json.NewDecoder(resp.Body).Decode(&res)
	assert.Equal(t, 1, res.Total)
}

func TestGetNFTMetadata(t *testing.T) {
	t.Run("resolves", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockWalletService)
		app := fiber.New()
		app.Get("/nft/metadata/:mintAddress", GetNFTMetadata(mockSvc))

		mockSvc.On("NFTMetadata", mock.Anything, "mint-1").
			Return(&service.NFTMetadataResult{MintAddress: "mint-1", Name: "deed.pdf", IPFSLink: "https://ipfs.io/ipfs/meta-cid"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/nft/metadata/mint-1", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var res service.NFTMetadataResult
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "mint-1", res.MintAddress)
		assert.Equal(t, "deed.pdf", res.Name)
	})

	t.Run("unknown mint address", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockWalletService)
		app := fiber.New()
		app.Get("/nft/metadata/:mintAddress", GetNFTMetadata(mockSvc))

		mockSvc.On("NFTMetadata", mock.Anything, "mint-x").
			Return(nil, fmt.Errorf("%w: nft mint-x", apperr.ErrNotFound))

		req := httptest.NewRequest(http.MethodGet, "/nft/metadata/mint-x", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestTransferNFT(t *testing.T) {
	newReq := func() *http.Request {
		body := strings.NewReader(`{"recipient_email":"b@example.com","mint_address":"mint-1","amount":2}`)
		req := httptest.NewRequest(http.MethodPost, "/userWallet/wallet/transfer", body)
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("transferred", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockWalletService)
		app := fiber.New()
		app.Post("/userWallet/wallet/transfer", asActor("u1", model.RoleUser), TransferNFT(mockSvc))

		mockSvc.On("Transfer", mock.Anything, service.TransferParams{
			FromUserID: "u1", RecipientEmail: "b@example.com", MintAddress: "mint-1", Amount: 2,
		}).Return(nil)

		resp, _ := app.Test(newReq())
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockWalletService)
		app := fiber.New()
		app.Post("/userWallet/wallet/transfer", asActor("u1", model.RoleUser), TransferNFT(mockSvc))

		mockSvc.On("Transfer", mock.Anything, mock.Anything).
			Return(fmt.Errorf("%w: holds fewer than 2 copies", apperr.ErrInsufficientBalance))

		resp, _ := app.Test(newReq())
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INSUFFICIENT_BALANCE", body.Error.Code)
	})
}

func TestRegisterAndLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := fiber.New()
	app.Post("/auth/register", Register(mockSvc))
	app.Post("/auth/login", Login(mockSvc))

	t.Run("register", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, service.RegisterParams{
			Email: "a@example.com", Name: "A", Password: "long-enough", Role: "",
		}).Return(&model.User{ID: "u1", Email: "a@example.com", Role: model.RoleUser}, nil).Once()

		body := strings.NewReader(`{"email":"a@example.com","name":"A","password":"long-enough"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("login", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "a@example.com", "long-enough").
			Return("signed-token", &model.User{ID: "u1"}, nil).Once()

		body := strings.NewReader(`{"email":"a@example.com","password":"long-enough"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var res map[string]any
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "signed-token", res["token"])
	})

	t.Run("bad credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "a@example.com", "wrong").
			Return("", nil, fmt.Errorf("%w: invalid credentials", apperr.ErrValidation)).Once()

		body := strings.NewReader(`{"email":"a@example.com","password":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDocumentMetrics(t *testing.T) {
	mockSvc := new(serviceMocks.MockNotarizationService)
	app := fiber.New()
	app.Get("/admin/documents/metrics", DocumentMetrics(mockSvc))

	mockSvc.On("StatusMetrics", mock.Anything).
		Return([]repository.StatusCount{{Status: model.StatusPending, Count: 2}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/documents/metrics", nil)
	resp, _ := app.Test(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []repository.StatusCount `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Len(t, body.Data, 1)
}
