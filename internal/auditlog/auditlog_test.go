package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nadirsultanli/order-management-system-sub008/internal/repository"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockLister struct {
	mock.Mock
}

func (m *MockLister) List(ctx context.Context, f *repository.Filter, limit uint) ([]models.AuditLog, error) {
	args := m.Called(ctx, f, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditLog), args.Error(1)
}

func TestRecordMarshalsData(t *testing.T) {
	rec, err := record(models.AuditLog{ResourceID: "t1", ResourceType: "truck", Action: "committed"}, map[string]int{"items": 3})
	require.NoError(t, err)
	assert.Equal(t, "t1", rec["resource_id"])
	assert.JSONEq(t, `{"items":3}`, rec["data"].(string))

	_, err = record(models.AuditLog{}, make(chan int))
	assert.Error(t, err)
}

func TestListQueryFiltersAndOrders(t *testing.T) {
	f := repository.NewFilter().Equal("resource_type", "truck")

	sql, args, err := listQuery(repository.NewStore(nil).Goqu(), f, 0).Prepared(true).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `FROM "dashboard_audit_logs" AS "a"`)
	assert.Contains(t, sql, `WHERE ("a"."resource_type" = $1)`)
	assert.Contains(t, sql, `ORDER BY "a"."created_at" DESC, "a"."id" DESC`)
	assert.Contains(t, sql, `LIMIT $2`)
	require.Len(t, args, 2)
	assert.Equal(t, "truck", args[0])
}

func TestGetLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		query      string
		setupMock  func(m *MockLister)
		nilRepo    bool
		wantStatus int
	}{
		{
			name:  "lists filtered logs",
			query: "?resource_type=truck&action=committed&limit=5",
			setupMock: func(m *MockLister) {
				m.On("List", mock.Anything, mock.MatchedBy(func(f *repository.Filter) bool {
					resourceType, _ := f.Value("resource_type")
					action, _ := f.Value("action")
					return resourceType == "truck" && action == "committed"
				}), uint(5)).Return([]models.AuditLog{{ID: 1, ResourceID: "t1", ResourceType: "truck", Action: "committed"}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "rejects bad limit",
			query:      "?limit=-1",
			setupMock:  func(m *MockLister) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "lists logs in a time window",
			query: "?since=2026-03-01T00:00:00Z&until=2026-03-02T00:00:00Z",
			setupMock: func(m *MockLister) {
				m.On("List", mock.Anything, mock.MatchedBy(func(f *repository.Filter) bool {
					return len(f.Expressions("a")) == 2
				}), uint(0)).Return([]models.AuditLog{{ID: 2, ResourceID: "w1", ResourceType: "transfer", Action: "submitted"}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "rejects bad since",
			query:      "?since=yesterday",
			setupMock:  func(m *MockLister) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "repository failure",
			query: "",
			setupMock: func(m *MockLister) {
				m.On("List", mock.Anything, mock.Anything, uint(0)).Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "storage not configured",
			nilRepo:    true,
			setupMock:  func(m *MockLister) {},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockLister)
			tt.setupMock(m)

			var lister Lister = m
			if tt.nilRepo {
				lister = nil
			}
			router := gin.New()
			NewHandler(lister, zap.NewNop()).RegisterRoutes(router)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/audit-logs"+tt.query, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				var logs []models.AuditLog
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
				assert.Len(t, logs, 1)
			}
			m.AssertExpectations(t)
		})
	}
}
