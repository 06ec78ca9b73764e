package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"notaryapi/internal/model"
	"notaryapi/internal/repository"
)

var documentColumnNames = []string{
	"id", "user_id", "requester_name", "requester_citizen_id", "requester_phone",
	"requester_email", "notarization_field", "notarization_service", "amount",
	"files", "output_files", "status", "feedback", "metadata_uri",
	"mint_address", "tx_signature", "created_at", "updated_at",
}

func documentRow(id, status string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(documentColumnNames).
		AddRow(id, "u1", "Jane Roe", "0123456789", "+84901234567",
			"jane@example.com", "real-estate", "contract", int64(150000),
			[]byte(`["documents/d1/a.pdf"]`), []byte(`[]`), status, "", "",
			"", "", now, now)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:     "d1",
		UserID: "u1",
		Requester: model.RequesterInfo{
			FullName:    "Jane Roe",
			CitizenID:   "0123456789",
			PhoneNumber: "+84901234567",
			Email:       "jane@example.com",
		},
		NotarizationField:   "real-estate",
		NotarizationService: "contract",
		Amount:              150000,
		Files:               []string{"documents/d1/a.pdf"},
		Status:              model.StatusPending,
		CreatedAt:           now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.ID, doc.UserID, "Jane Roe", "0123456789", "+84901234567",
			"jane@example.com", "real-estate", "contract", int64(150000),
			[]byte(`["documents/d1/a.pdf"]`), model.StatusPending, now).
		WillReturnRows(documentRow("d1", model.StatusPending, now))
	mock.ExpectExec("INSERT INTO status_tracking").
		WithArgs("d1", model.StatusPending, "u1", model.RoleUser, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, doc.ID, result.ID)
	assert.Equal(t, []string{"documents/d1/a.pdf"}, result.Files)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("d1").
			WillReturnRows(documentRow("d1", model.StatusProcessing, time.Now()))

		doc, err := repo.FindByID(ctx, "d1")

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "d1", doc.ID)
		assert.Equal(t, model.StatusProcessing, doc.Status)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_ForwardStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	params := repository.ForwardStatusParams{
		DocumentID: "d1",
		FromStatus: model.StatusPending,
		ToStatus:   model.StatusProcessing,
		ActorID:    "sec-1",
		ActorRole:  model.RoleSecretary,
	}

	t.Run("wins the swap", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents").
			WithArgs(model.StatusProcessing, "", []byte(`[]`), sqlmock.AnyArg(),
				"d1", model.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO status_tracking").
			WithArgs("d1", model.StatusProcessing, "sec-1", model.RoleSecretary, "", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.ForwardStatus(ctx, params)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses the swap", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents").
			WithArgs(model.StatusProcessing, "", []byte(`[]`), sqlmock.AnyArg(),
				"d1", model.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("d1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		err := repo.ForwardStatus(ctx, params)

		assert.ErrorIs(t, err, repository.ErrStatusChanged)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("document missing", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents").
			WithArgs(model.StatusProcessing, "", []byte(`[]`), sqlmock.AnyArg(),
				"d1", model.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("d1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		err := repo.ForwardStatus(ctx, params)

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("audit row carries the feedback", func(t *testing.T) {
		rejecting := repository.ForwardStatusParams{
			DocumentID: "d1",
			FromStatus: model.StatusProcessing,
			ToStatus:   model.StatusRejected,
			ActorID:    "sec-1",
			ActorRole:  model.RoleSecretary,
			Feedback:   "missing power of attorney",
		}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents").
			WithArgs(model.StatusRejected, "missing power of attorney", []byte(`[]`),
				sqlmock.AnyArg(), "d1", model.StatusProcessing).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO status_tracking").
			WithArgs("d1", model.StatusRejected, "sec-1", model.RoleSecretary,
				"missing power of attorney", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.ForwardStatus(ctx, rejecting)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
		WithArgs(model.StatusPending, "").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs(model.StatusPending, "", 10, 0).
		WillReturnRows(documentRow("d1", model.StatusPending, time.Now()))

	res, err := repo.List(ctx,
		repository.DocumentFilter{Status: model.StatusPending},
		repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListAcceptedUnfinalized(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs(model.StatusAccepted).
		WillReturnRows(documentRow("d1", model.StatusAccepted, time.Now()))

	docs, err := repo.ListAcceptedUnfinalized(ctx)

	assert.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SetMintResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("first write sticks", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WithArgs("mint-addr", "tx-sig", "d1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetMintResult(ctx, "d1", "mint-addr", "tx-sig")

		assert.NoError(t, err)
	})

	t.Run("already minted", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WithArgs("mint-addr-2", "tx-sig-2", "d1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetMintResult(ctx, "d1", "mint-addr-2", "tx-sig-2")

		assert.ErrorIs(t, err, repository.ErrStatusChanged)
	})
}

func TestDocumentPostgres_CountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM documents GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(model.StatusAccepted, 3).
			AddRow(model.StatusPending, 7))

	counts, err := repo.CountByStatus(ctx)

	assert.NoError(t, err)
	assert.Equal(t, []repository.StatusCount{
		{Status: model.StatusAccepted, Count: 3},
		{Status: model.StatusPending, Count: 7},
	}, counts)
}
