package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/groups"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func asD(t *testing.T, doc document) bson.D {
	t.Helper()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func TestDocumentConversionKeepsDuplicatesAndTimes(t *testing.T) {
	created := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	g := &groups.Group{ID: "g1", Title: "G1", Tenants: []string{"t1", "t1"}, CreatedAt: created}

	doc := toDocument(g)
	require.Nil(t, doc.ReportedAt)
	require.NotNil(t, doc.Report)

	back := fromDocument(&doc)
	require.Equal(t, []string{"t1", "t1"}, back.Tenants)
	require.Empty(t, back.Report)
	require.True(t, back.ReportedAt.IsZero())
	require.Equal(t, created, back.CreatedAt)
}

func TestStoreAgainstMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		s := NewWithCollection(mt.Coll)
		require.NoError(mt, s.Insert(context.Background(), &groups.Group{ID: "g1", Title: "G1", CreatedAt: created}))
	})

	mt.Run("insert duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))
		s := NewWithCollection(mt.Coll)
		err := s.Insert(context.Background(), &groups.Group{ID: "g1"})
		require.True(mt, errors.Is(err, errors.ErrPersistence))
		require.Equal(mt, "duplicate_id", errors.CauseOf(err))
	})

	mt.Run("list", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		first := document{GroupID: "g1", Title: "G1", Tenants: []string{"t1", "t2"}, CreatedAt: created}
		second := document{GroupID: "g2", Title: "G2", Tenants: []string{"t2"}, CreatedAt: created.Add(time.Minute),
			Report: []reports.Result{{TenantID: "t2", TenantName: "Two", Report: accounting.Report{ReportID: "ProfitAndLoss"}}}}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, asD(t, first), asD(t, second)))

		s := NewWithCollection(mt.Coll)
		list, err := s.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		require.Equal(mt, "g1", list[0].ID)
		require.Equal(mt, []string{"t1", "t2"}, list[0].Tenants)
		require.Equal(mt, "ProfitAndLoss", list[1].Report[0].Report.ReportID)
		require.Equal(mt, "Two", list[1].Report[0].TenantName)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		s := NewWithCollection(mt.Coll)
		_, err := s.Get(context.Background(), "nope")
		require.True(mt, errors.Is(err, errors.ErrNotFound))
	})

	mt.Run("set report", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)
		s := NewWithCollection(mt.Coll)
		require.NoError(mt, s.SetReport(context.Background(), "g1", nil, created))

		err := s.SetReport(context.Background(), "gone", nil, created)
		require.True(mt, errors.Is(err, errors.ErrNotFound))
	})
}
