package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"notaryapi/internal/http/middleware"
	"notaryapi/internal/model"
	"notaryapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay free of business logic; role gating on workflow actions is done by the
// transition table, not the router, so forward is open to any authenticated
// role.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	notarSvc service.NotarizationService,
	paySvc service.PaymentService,
	walletSvc service.WalletService,
	authSvc service.AuthService,
) {
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	auth := app.Group("/auth")
	auth.Post("/register", Register(authSvc))
	auth.Post("/login", Login(authSvc))

	authed := middleware.RequireAuth(authSvc)

	n := app.Group("/notarization", authed)
	n.Post("/upload-files", UploadFiles(notarSvc))
	n.Patch("/forwardDocumentStatus/:documentId", ForwardDocumentStatus(notarSvc))
	n.Post("/approve-signature-by-user", middleware.RequireRoles(model.RoleUser), ApproveSignatureByUser(notarSvc))
	n.Post("/approve-signature-by-notary", middleware.RequireRoles(model.RoleNotary), ApproveSignatureByNotary(notarSvc))
	n.Get("/document/:documentId", GetDocument(notarSvc))
	n.Get("/getStatusById/:documentId", GetDocumentStatus(notarSvc))
	n.Get("/history/:userId", GetHistory(notarSvc))
	n.Get("/getDocumentByRole", middleware.RequireRoles(model.RoleSecretary, model.RoleNotary), GetDocumentByRole(notarSvc))
	n.Get("/getAllNotarizations", middleware.RequireRoles(model.RoleSecretary, model.RoleNotary, model.RoleAdmin), GetAllNotarizations(notarSvc))

	// The gateway posts callbacks without a bearer token; verification
	// happens against the gateway itself inside the service.
	app.Post("/payments/callback", PaymentCallback(paySvc))

	app.Get("/nft/metadata/:mintAddress", GetNFTMetadata(walletSvc))

	p := app.Group("/payments", authed)
	p.Post("/", CreatePayment(paySvc))
	p.Get("/:id", GetPayment(paySvc))
	p.Get("/:id/status", GetPaymentStatus(paySvc))
	p.Post("/update-all", middleware.RequireRoles(model.RoleAdmin), UpdateAllPayments(paySvc))

	w := app.Group("/userWallet/wallet", authed)
	w.Get("/", GetWallet(walletSvc))
	w.Post("/add", AddWalletNFT(walletSvc))
	w.Post("/transfer", TransferNFT(walletSvc))
	w.Post("/decrease", DecreaseWalletAmounts(walletSvc))
	w.Post("/purchase", PurchaseWalletItem(walletSvc))

	admin := app.Group("/admin", authed, middleware.RequireRoles(model.RoleAdmin))
	admin.Get("/documents/metrics", DocumentMetrics(notarSvc))
}
