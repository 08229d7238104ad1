package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	authsvc "carbon-ledger/internal/application/auth"
	"carbon-ledger/internal/config"
	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminPassword = "adm1n!pass"
	userPassword  = "us3r!pass"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

func testConfig(t *testing.T) *config.Config {
	mr := miniredis.RunT(t)
	return &config.Config{
		Env:                   "test",
		DatabaseURL:           ":memory:",
		RedisURL:              "redis://" + mr.Addr(),
		HealthAdminKey:        "reset-key",
		AdminAccount:          "0xadmin",
		AdminPassword:         adminPassword,
		MinPrice:              domain.NewAmount(100),
		PlatformFeeBps:        250,
		CarbonCreditThreshold: 1000,
		GenerationRate:        1,
		TokenDecimals:         18,
	}
}

func newTestApp(t *testing.T) (*fiber.App, *config.Config, func(address string)) {
	cfg := testConfig(t)
	app, db, rdb, err := CreateApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		rdb.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	addAccount := func(address string) {
		_, err := authsvc.CreateAccount(db, address, userPassword, domain.RoleMember)
		require.NoError(t, err)
	}
	return app, cfg, addAccount
}

func call(t *testing.T, app *fiber.App, method, path, cookie string, body interface{}) (int, envelope) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", middleware.SessionCookieName+"="+cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func login(t *testing.T, app *fiber.App, address, password string) string {
	b, _ := json.Marshal(map[string]string{"address": address, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Value
		}
	}
	t.Fatalf("no session cookie for %s", address)
	return ""
}

func TestCreateApp_RequiresRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = ""
	_, _, _, err := CreateApp(cfg)
	assert.Error(t, err)
}

func TestRouter_EndToEndPurchase(t *testing.T) {
	app, _, addAccount := newTestApp(t)
	addAccount("0xowner")
	addAccount("0xbuyer")

	admin := login(t, app, "0xadmin", adminPassword)
	owner := login(t, app, "0xowner", userPassword)
	buyer := login(t, app, "0xbuyer", userPassword)

	code, _ := call(t, app, http.MethodPost, "/api/v1/projects", "", map[string]interface{}{})
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, env := call(t, app, http.MethodPost, "/api/v1/projects", owner, map[string]interface{}{
		"name":             "Peatland",
		"location":         "Borneo",
		"price":            "100",
		"sensor_addresses": []string{"0xs1"},
		"sensor_types":     []string{domain.SensorTypeSoilCarbon},
	})
	require.Equal(t, fiber.StatusCreated, code, env.Error.Message)
	var created struct {
		ProjectID int64 `json:"project_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, int64(1), created.ProjectID)

	code, _ = call(t, app, http.MethodPost, "/api/v1/admin/projects/1/verify", owner, nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = call(t, app, http.MethodPost, "/api/v1/admin/projects/1/verify", admin, nil)
	require.Equal(t, fiber.StatusOK, code)
	code, _ = call(t, app, http.MethodPost, "/api/v1/admin/sensors/0xs1/verify", admin, nil)
	require.Equal(t, fiber.StatusOK, code)
	code, _ = call(t, app, http.MethodPut, "/api/v1/admin/footprints/0xbuyer", admin, map[string]int64{"value": 10})
	require.Equal(t, fiber.StatusOK, code)

	code, env = call(t, app, http.MethodPost, "/api/v1/sensors/readings", owner, map[string]int64{"reading": 5000, "timestamp": 1})
	assert.Equal(t, fiber.StatusBadRequest, code, env.Error.Message)

	code, env = call(t, app, http.MethodPost, "/api/v1/sensors/readings", owner, map[string]interface{}{
		"sensor_address": "0xs1", "reading": 5000, "timestamp": 1,
	})
	require.Equal(t, fiber.StatusOK, code, env.Error.Message)

	code, env = call(t, app, http.MethodPost, "/api/v1/sensors/readings", owner, map[string]interface{}{
		"sensor_address": "0xs1", "reading": 5000, "timestamp": 1,
	})
	assert.Equal(t, fiber.StatusConflict, code, env.Error.Message)

	code, env = call(t, app, http.MethodPost, "/api/v1/marketplace/purchase", buyer, map[string]interface{}{
		"project_id": 1, "credits": 6, "payment": "600",
	})
	assert.Equal(t, fiber.StatusConflict, code, env.Error.Message)

	code, env = call(t, app, http.MethodPost, "/api/v1/marketplace/purchase", buyer, map[string]interface{}{
		"project_id": 1, "credits": 3, "payment": "800", "reason": "flights",
	})
	require.Equal(t, fiber.StatusCreated, code, env.Error.Message)
	var receipt struct {
		TotalCost    string `json:"total_cost"`
		PlatformFee  string `json:"platform_fee"`
		OwnerPayment string `json:"owner_payment"`
		Refund       string `json:"refund"`
		Footprint    int64  `json:"footprint"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &receipt))
	assert.Equal(t, "300", receipt.TotalCost)
	assert.Equal(t, "7", receipt.PlatformFee)
	assert.Equal(t, "293", receipt.OwnerPayment)
	assert.Equal(t, "500", receipt.Refund)
	assert.Equal(t, int64(7), receipt.Footprint)

	code, env = call(t, app, http.MethodGet, "/api/v1/projects/1", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	var project domain.Project
	require.NoError(t, json.Unmarshal(env.Data, &project))
	assert.Equal(t, int64(2), project.AvailableCredits)
	assert.Equal(t, int64(5), project.TotalCreditsGenerated)

	code, env = call(t, app, http.MethodGet, "/api/v1/tokens/0xbuyer", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	var bal struct {
		TokenBalance string `json:"token_balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bal))
	assert.Equal(t, "3000000000000000000", bal.TokenBalance)

	code, env = call(t, app, http.MethodGet, "/api/v1/projects/1/offsets", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	var offsets []domain.Offset
	require.NoError(t, json.Unmarshal(env.Data, &offsets))
	require.Len(t, offsets, 1)
	assert.Equal(t, "flights", offsets[0].Reason)

	code, env = call(t, app, http.MethodPost, "/api/v1/admin/withdraw", admin, nil)
	require.Equal(t, fiber.StatusOK, code, env.Error.Message)
	code, _ = call(t, app, http.MethodPost, "/api/v1/admin/withdraw", admin, nil)
	assert.Equal(t, fiber.StatusConflict, code)
}

func TestRouter_PublicReads(t *testing.T) {
	app, _, _ := newTestApp(t)

	code, env := call(t, app, http.MethodGet, "/api/v1/platform/fee", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"fee_bps":250}`, string(env.Data))

	code, _ = call(t, app, http.MethodGet, "/api/v1/projects/9", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = call(t, app, http.MethodGet, "/api/v1/projects/abc", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = call(t, app, http.MethodGet, "/health/json", "", nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestRouter_PauseRejectsMutations(t *testing.T) {
	app, _, addAccount := newTestApp(t)
	addAccount("0xowner")
	admin := login(t, app, "0xadmin", adminPassword)
	owner := login(t, app, "0xowner", userPassword)

	code, _ := call(t, app, http.MethodPost, "/api/v1/admin/pause", admin, nil)
	require.Equal(t, fiber.StatusOK, code)

	code, env := call(t, app, http.MethodPost, "/api/v1/projects", owner, map[string]interface{}{
		"name": "Dunes", "location": "Sahara", "price": "100",
		"sensor_addresses": []string{"0xs9"}, "sensor_types": []string{domain.SensorTypeAirQuality},
	})
	assert.Equal(t, fiber.StatusServiceUnavailable, code, env.Error.Message)

	code, _ = call(t, app, http.MethodPost, "/api/v1/admin/unpause", admin, nil)
	require.Equal(t, fiber.StatusOK, code)
}
