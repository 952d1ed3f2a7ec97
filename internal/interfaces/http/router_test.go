package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/dto"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/memory"
	apphttp "github.com/JoaquimMateus0404/VendaFlex-sub000/internal/interfaces/http"
)

var t0 = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
	token string
}

func newAPI(t *testing.T, role string) *apiFixture {
	t.Helper()
	store := memory.New()
	tick := 0
	clock := func() time.Time { tick++; return t0.Add(time.Duration(tick) * time.Second) }
	ledger := inventory.NewStockLedgerUseCase(store, zerolog.Nop(), inventory.WithClock(clock))
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:      ledger,
		Query:       inventory.NewLedgerQueryUseCase(store.Levels(), store.Movements(), zerolog.Nop()),
		Consistency: inventory.NewConsistencyUseCase(store.Levels(), store.Movements(), zerolog.Nop()),
		JWTSecret:   testJWTSecret,
		JWTIssuer:   testIssuer,
	})
	return &apiFixture{app: app, store: store, token: tokenForRole(t, role)}
}

// call ejecuta la petición con el token del fixture y decodifica la respuesta en out (si no es nil).
func (f *apiFixture) call(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", f.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAPI_FlujoCompleto(t *testing.T) {
	f := newAPI(t, "bodeguero")

	var created dto.MovementResultResponse
	status := f.call(t, http.MethodPost, "/api/inventory/levels",
		fiber.Map{"product_id": "7", "initial_quantity": 50}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, int64(50), created.Level.Quantity)
	assert.Equal(t, testUserID, created.Movement.ActorID, "el actor sale del token")
	assert.Equal(t, "ENTRY", created.Movement.Type)
	assert.Equal(t, int64(0), created.Movement.PreviousQuantity)

	var entry dto.MovementResultResponse
	status = f.call(t, http.MethodPost, "/api/inventory/levels/7/entries",
		fiber.Map{"quantity": 20, "unit_cost": "2.50"}, &entry)
	require.Equal(t, http.StatusCreated, status)
	require.NotNil(t, entry.Movement.TotalCost)
	assert.True(t, entry.Movement.TotalCost.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "ENT-7-20240315100002000000", entry.Movement.Reference)

	var exit dto.MovementResultResponse
	status = f.call(t, http.MethodPost, "/api/inventory/levels/7/exits", fiber.Map{"quantity": 5}, &exit)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, int64(65), exit.Level.Quantity)
	assert.Nil(t, exit.Movement.UnitCost)

	var level dto.StockLevelResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/levels/7", nil, &level))
	assert.Equal(t, int64(65), level.Quantity)
	assert.True(t, level.AverageCost.Equal(decimal.RequireFromString("2.5")))

	var history []dto.MovementResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/products/7/movements", nil, &history))
	require.Len(t, history, 3)
	assert.Equal(t, int64(3), history[0].ID, "más reciente primero")

	var page dto.MovementPageResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/movements?page=2&size=2", nil, &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].ID)

	var count dto.CountResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/movements/count", nil, &count))
	assert.Equal(t, int64(3), count.Total)

	var cost dto.TotalCostResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/products/7/total-cost", nil, &cost))
	assert.True(t, cost.TotalCost.Equal(decimal.NewFromInt(50)))

	var exits []dto.MovementResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/movements/type/exit", nil, &exits))
	assert.Len(t, exits, 1)

	var byUser []dto.MovementResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/users/"+testUserID+"/movements", nil, &byUser))
	assert.Len(t, byUser, 3)

	var inRange []dto.MovementResponse
	path := "/api/inventory/movements/range?from=2024-03-15T10:00:02Z&to=2024-03-15T10:00:03Z"
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, path, nil, &inRange))
	assert.Len(t, inRange, 2, "rango inclusivo")
}

func TestAPI_Reservas(t *testing.T) {
	f := newAPI(t, "vendedor")
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/inventory/levels",
		fiber.Map{"product_id": "p1", "initial_quantity": 10}, nil))

	var res dto.MovementResultResponse
	status := f.call(t, http.MethodPost, "/api/inventory/levels/p1/reservations",
		fiber.Map{"quantity": 4, "available_before": 10}, &res)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "EXIT", res.Movement.Type)
	assert.Equal(t, int64(6), res.Level.Quantity)

	var errBody dto.ErrorResponse
	status = f.call(t, http.MethodPost, "/api/inventory/levels/p1/reservations",
		fiber.Map{"quantity": 1, "available_before": 10}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errBody.Code)

	status = f.call(t, http.MethodPost, "/api/inventory/levels/p1/releases", fiber.Map{"quantity": 4}, &res)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "RETURN", res.Movement.Type)
	assert.Equal(t, int64(10), res.Level.Quantity)
}

func TestAPI_Errores(t *testing.T) {
	f := newAPI(t, "bodeguero")
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/inventory/levels",
		fiber.Map{"product_id": "p1", "initial_quantity": 3}, nil))

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"stock insuficiente", http.MethodPost, "/api/inventory/levels/p1/exits", fiber.Map{"quantity": 4}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"cantidad cero", http.MethodPost, "/api/inventory/levels/p1/entries", fiber.Map{"quantity": 0}, http.StatusBadRequest, "VALIDATION"},
		{"duplicado", http.MethodPost, "/api/inventory/levels", fiber.Map{"product_id": "p1"}, http.StatusConflict, "DUPLICATE"},
		{"producto inexistente", http.MethodPost, "/api/inventory/levels/zz/entries", fiber.Map{"quantity": 1}, http.StatusNotFound, "NOT_FOUND"},
		{"ajuste sin objetivo", http.MethodPost, "/api/inventory/levels/p1/adjustments", fiber.Map{}, http.StatusBadRequest, "VALIDATION"},
		{"ajuste negativo", http.MethodPost, "/api/inventory/levels/p1/adjustments", fiber.Map{"target_quantity": -1}, http.StatusBadRequest, "VALIDATION"},
		{"nivel inexistente", http.MethodGet, "/api/inventory/levels/zz", nil, http.StatusNotFound, "NOT_FOUND"},
		{"tipo desconocido", http.MethodGet, "/api/inventory/movements/type/gift", nil, http.StatusBadRequest, "VALIDATION"},
		{"rango invertido", http.MethodGet, "/api/inventory/movements/range?from=2024-03-16T00:00:00Z&to=2024-03-15T00:00:00Z", nil, http.StatusBadRequest, "VALIDATION"},
		{"rango incompleto", http.MethodGet, "/api/inventory/products/p1/movements?from=2024-03-16T00:00:00Z", nil, http.StatusBadRequest, "VALIDATION"},
		{"fecha malformada", http.MethodGet, "/api/inventory/movements/range?from=ayer&to=hoy", nil, http.StatusBadRequest, "VALIDATION"},
		{"página cero", http.MethodGet, "/api/inventory/movements?page=0", nil, http.StatusBadRequest, "VALIDATION"},
		{"página no numérica", http.MethodGet, "/api/inventory/movements?page=x", nil, http.StatusBadRequest, "INVALID_QUERY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body dto.ErrorResponse
			assert.Equal(t, tc.status, f.call(t, tc.method, tc.path, tc.body, &body))
			assert.Equal(t, tc.code, body.Code)
		})
	}

	// Ninguna escritura rechazada dejó movimientos.
	var count dto.CountResponse
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/movements/count", nil, &count))
	assert.Equal(t, int64(1), count.Total)
}

func TestAPI_AlmacenamientoCaido(t *testing.T) {
	f := newAPI(t, "bodeguero")
	f.store.FailOn(memory.OpCount, assert.AnError)

	var body dto.ErrorResponse
	assert.Equal(t, http.StatusServiceUnavailable, f.call(t, http.MethodGet, "/api/inventory/movements/count", nil, &body))
	assert.Equal(t, "STORAGE_UNAVAILABLE", body.Code)
	assert.NotContains(t, body.Message, assert.AnError.Error())
}

func TestAPI_SinToken(t *testing.T) {
	f := newAPI(t, "admin")
	f.token = ""
	var body dto.ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, f.call(t, http.MethodGet, "/api/inventory/movements", nil, &body))
	assert.Equal(t, "MISSING_TOKEN", body.Code)
}

func TestAPI_ConsistenciaSoloAdmin(t *testing.T) {
	f := newAPI(t, "bodeguero")
	assert.Equal(t, http.StatusForbidden, f.call(t, http.MethodGet, "/api/inventory/consistency", nil, nil))

	admin := newAPI(t, "admin")
	require.Equal(t, http.StatusCreated, admin.call(t, http.MethodPost, "/api/inventory/levels",
		fiber.Map{"product_id": "p1", "initial_quantity": 2}, nil))
	var report struct {
		Consistent    bool                    `json:"consistent"`
		Discrepancies []inventory.Discrepancy `json:"discrepancies"`
	}
	require.Equal(t, http.StatusOK, admin.call(t, http.MethodGet, "/api/inventory/consistency", nil, &report))
	assert.True(t, report.Consistent)
	assert.Empty(t, report.Discrepancies)

	var exists map[string]bool
	require.Equal(t, http.StatusOK, admin.call(t, http.MethodGet, "/api/inventory/levels/p1/exists", nil, &exists))
	assert.True(t, exists["exists"])

	var levels []dto.StockLevelResponse
	require.Equal(t, http.StatusOK, admin.call(t, http.MethodGet, "/api/inventory/levels?limit=10", nil, &levels))
	assert.Len(t, levels, 1)
}

func TestAPI_ProductoDeLaRutaSeConservaEntrePeticiones(t *testing.T) {
	f := newAPI(t, "admin")
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/inventory/levels",
		fiber.Map{"product_id": "p1", "initial_quantity": 2}, nil))
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/inventory/levels/p1/entries",
		fiber.Map{"quantity": 3}, nil))
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/inventory/levels",
		fiber.Map{"product_id": "7", "initial_quantity": 1}, nil))
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/inventory/levels/7/entries",
		fiber.Map{"quantity": 4}, nil))
	require.Equal(t, http.StatusCreated, f.call(t, http.MethodPost, "/api/inventory/levels/7/exits",
		fiber.Map{"quantity": 2}, nil))
	// peticiones que reescriben el buffer de la ruta
	for i := 0; i < 3; i++ {
		f.call(t, http.MethodGet, "/api/inventory/movements/type/return", nil, nil)
	}

	for product, want := range map[string]int{"p1": 2, "7": 3} {
		var history []dto.MovementResponse
		require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/products/"+product+"/movements", nil, &history))
		require.Len(t, history, want, "historial de %s", product)
		for _, m := range history {
			assert.Equal(t, product, m.ProductID)
		}
	}

	var report struct {
		Consistent bool `json:"consistent"`
	}
	require.Equal(t, http.StatusOK, f.call(t, http.MethodGet, "/api/inventory/consistency", nil, &report))
	assert.True(t, report.Consistent)
}
