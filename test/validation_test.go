package test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"clinic_backoffice/handlers"
	"clinic_backoffice/middleware"
	"clinic_backoffice/models"
	"clinic_backoffice/services"
	"clinic_backoffice/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupValidationRoutes() {
	validations := testApp.Group("/validations", middleware.RequireAuth, middleware.RequireValidator)
	validations.Get("/", handlers.ListEntries)
	validations.Get("/stats", handlers.GetValidationStats)
	validations.Post("/:kind/:id/approve", handlers.ApproveEntry)
	validations.Post("/:kind/:id/reject", handlers.RejectEntry)
	testApp.Get("/dashboard/summary", middleware.RequireAuth, middleware.RequireValidator, handlers.GetDailySummary)
}

func seedRevenue(t *testing.T, db *gorm.DB, amount float64) models.RevenueEntry {
	t.Helper()
	entry := models.RevenueEntry{
		ID:       uuid.New().String(),
		Category: "consultation",
		Amount:   amount,
		Date:     "2026-03-02",
	}
	services.Submit(&entry.ValidationDecision)
	require.NoError(t, db.Create(&entry).Error)
	return entry
}

func postDecision(t *testing.T, path, token, note string) (int, types.APIResponse) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"note": note})
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := testApp.Test(req)
	require.NoError(t, err)
	var response types.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	return resp.StatusCode, response
}

func TestApproveAndRejectEntries(t *testing.T) {
	_, db := SetupTest()
	setupValidationRoutes()

	validator := createTestUser(db, "validator")
	token := createTestToken(validator.ID, "validator")

	approved := seedRevenue(t, db, 250000)
	rejected := seedRevenue(t, db, 100000)

	status, response := postDecision(t, "/validations/revenue/"+approved.ID+"/approve", token, "checked against receipts")
	assert.Equal(t, 200, status)
	assert.True(t, response.Success)

	// Decisions are terminal.
	status, response = postDecision(t, "/validations/revenue/"+approved.ID+"/approve", token, "")
	assert.Equal(t, 409, status)
	assert.Equal(t, types.ErrCodeInvalidTransition, response.ErrorCode)

	status, response = postDecision(t, "/validations/revenue/"+rejected.ID+"/reject", token, "missing receipt")
	assert.Equal(t, 200, status)
	assert.True(t, response.Success)

	var stored models.RevenueEntry
	require.NoError(t, db.First(&stored, "id = ?", approved.ID).Error)
	assert.Equal(t, models.StatusApproved, stored.Status)
	require.NotNil(t, stored.ValidatedBy)
	assert.Equal(t, validator.ID, *stored.ValidatedBy)
	assert.NotNil(t, stored.ValidatedAt)
	assert.Equal(t, "checked against receipts", stored.ValidationNote)
}

func TestApproveUnknownEntryAndKind(t *testing.T) {
	_, db := SetupTest()
	setupValidationRoutes()

	validator := createTestUser(db, "validator")
	token := createTestToken(validator.ID, "validator")

	status, response := postDecision(t, "/validations/revenue/"+uuid.New().String()+"/approve", token, "")
	assert.Equal(t, 404, status)
	assert.Equal(t, types.ErrCodeNotFound, response.ErrorCode)

	status, _ = postDecision(t, "/validations/payroll/some-id/approve", token, "")
	assert.Equal(t, 400, status)
}

func TestValidationRequiresReviewerRole(t *testing.T) {
	_, db := SetupTest()
	setupValidationRoutes()

	nurse := createTestUser(db, "nurse")
	token := createTestToken(nurse.ID, "nurse")
	entry := seedRevenue(t, db, 50000)

	status, _ := postDecision(t, "/validations/revenue/"+entry.ID+"/approve", token, "")
	assert.Equal(t, 403, status)
}

func TestValidationStats(t *testing.T) {
	_, db := SetupTest()
	setupValidationRoutes()

	validator := createTestUser(db, "validator")
	token := createTestToken(validator.ID, "validator")

	first := seedRevenue(t, db, 100000)
	second := seedRevenue(t, db, 200000)
	seedRevenue(t, db, 300000) // stays pending

	postDecision(t, "/validations/revenue/"+first.ID+"/approve", token, "")
	postDecision(t, "/validations/revenue/"+second.ID+"/reject", token, "")

	req := httptest.NewRequest("GET", "/validations/stats?kind=revenue", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := testApp.Test(req)
	require.NoError(t, err)

	var response types.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	require.True(t, response.Success)

	data := response.Data.(map[string]interface{})
	assert.Equal(t, 0.5, data["approval_rate"])
	assert.Equal(t, float64(1), data["pending_count"])
}

func TestListEntriesFilters(t *testing.T) {
	_, db := SetupTest()
	setupValidationRoutes()

	validator := createTestUser(db, "validator")
	token := createTestToken(validator.ID, "validator")

	entry := seedRevenue(t, db, 100000)
	postDecision(t, "/validations/revenue/"+entry.ID+"/approve", token, "")
	seedRevenue(t, db, 200000)

	req := httptest.NewRequest("GET", "/validations/?kind=revenue&status=pending", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := testApp.Test(req)
	require.NoError(t, err)

	var response types.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	require.True(t, response.Success)

	entries, ok := response.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StatusPending, entries[0].(map[string]interface{})["status"])
}

func TestDashboardSummary(t *testing.T) {
	_, db := SetupTest()
	setupValidationRoutes()

	validator := createTestUser(db, "validator")
	token := createTestToken(validator.ID, "validator")
	seedRevenue(t, db, 100000)

	req := httptest.NewRequest("GET", "/dashboard/summary", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := testApp.Test(req)
	require.NoError(t, err)

	var response types.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	require.True(t, response.Success)

	data := response.Data.(map[string]interface{})
	pending := data["pending_entries"].(map[string]interface{})
	assert.Equal(t, float64(1), pending["revenue"])
	assert.Contains(t, data, "present_count")
	assert.Contains(t, data, "approval_rate")
}
