package front

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shariastocks-in/backend/internal/config"
	internaldb "github.com/shariastocks-in/backend/internal/db"
	"github.com/shariastocks-in/backend/internal/mailer"
	"github.com/shariastocks-in/backend/internal/models"
	"github.com/shariastocks-in/backend/internal/payment"
	"gorm.io/gorm"
)

// newTestServer wires the full route table against a fresh in-memory database.
func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, errOpen := internaldb.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open test db: %v", errOpen)
	}
	if errMigrate := internaldb.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate test db: %v", errMigrate)
	}

	engine := gin.New()
	RegisterFrontRoutes(engine, conn, config.JWTConfig{Secret: "test-secret", Expiry: time.Hour}, Deps{
		Gateway: payment.NewSimulatedGateway(),
		Mailer:  mailer.New(config.SMTPConfig{}, nil),
	})
	return engine, conn
}

// doJSON performs a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorded JSON response body.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if errDecode := json.Unmarshal(rec.Body.Bytes(), out); errDecode != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), errDecode)
	}
}

// signupUser registers an account and returns its token.
func signupUser(t *testing.T, engine *gin.Engine, email string) string {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name":     "Test Investor",
		"email":    email,
		"password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("signup: expected token")
	}
	return resp.Token
}

// subscribePlan walks a user through initiate and card payment.
func subscribePlan(t *testing.T, engine *gin.Engine, token string, plan, cycle string, confirmUpgrade bool) {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/api/transactions/initiate", token, gin.H{
		"plan":           plan,
		"billingCycle":   cycle,
		"confirmUpgrade": confirmUpgrade,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("initiate: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var initiate struct {
		TransactionID string `json:"transactionId"`
	}
	decode(t, rec, &initiate)

	rec = doJSON(t, engine, http.MethodPost, "/api/transactions/subscribe", token, gin.H{
		"transactionId": initiate.TransactionID,
		"paymentMethod": "card",
		"cardNumber":    "4111111111111111",
		"cardName":      "Test Investor",
		"expiryDate":    "12/30",
		"cvv":           "123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("subscribe: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSignupAndLogin(t *testing.T) {
	engine, _ := newTestServer(t)

	signupUser(t, engine, "investor@example.com")

	dup := doJSON(t, engine, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name":     "Someone Else",
		"email":    "investor@example.com",
		"password": "secret123",
	})
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", dup.Code)
	}

	login := doJSON(t, engine, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "investor@example.com",
		"password": "secret123",
	})
	if login.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", login.Code, login.Body.String())
	}

	wrong := doJSON(t, engine, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "investor@example.com",
		"password": "wrong-password",
	})
	if wrong.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", wrong.Code)
	}
}

func TestPlanCatalogue(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/subscriptions/plans", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("plans: expected 200, got %d", rec.Code)
	}
	var resp struct {
		PlanPrices map[string]struct {
			Monthly float64 `json:"monthly"`
			Annual  float64 `json:"annual"`
		} `json:"planPrices"`
	}
	decode(t, rec, &resp)
	if resp.PlanPrices["basic"].Monthly != 299 || resp.PlanPrices["basic"].Annual != 3048 {
		t.Fatalf("unexpected basic pricing: %+v", resp.PlanPrices["basic"])
	}
	if resp.PlanPrices["premium"].Monthly != 599 || resp.PlanPrices["premium"].Annual != 6110 {
		t.Fatalf("unexpected premium pricing: %+v", resp.PlanPrices["premium"])
	}
}

func TestCheckoutFlow(t *testing.T) {
	engine, _ := newTestServer(t)
	token := signupUser(t, engine, "checkout@example.com")

	rec := doJSON(t, engine, http.MethodPost, "/api/transactions/initiate", token, gin.H{
		"plan":         "basic",
		"billingCycle": "monthly",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("initiate: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var initiate struct {
		TransactionID string  `json:"transactionId"`
		PlanPrice     float64 `json:"planPrice"`
		TaxAmount     float64 `json:"taxAmount"`
		Amount        float64 `json:"amount"`
		IsUpgrade     bool    `json:"isUpgrade"`
	}
	decode(t, rec, &initiate)
	if initiate.PlanPrice != 299 || initiate.TaxAmount != 53.82 || initiate.Amount != 352.82 {
		t.Fatalf("unexpected quote: %+v", initiate)
	}
	if initiate.IsUpgrade {
		t.Fatal("fresh checkout must not be an upgrade")
	}

	rec = doJSON(t, engine, http.MethodPost, "/api/transactions/subscribe", token, gin.H{
		"transactionId": initiate.TransactionID,
		"paymentMethod": "card",
		"cardNumber":    "4111111111111111",
		"cardName":      "Test Investor",
		"expiryDate":    "12/30",
		"cvv":           "123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("subscribe: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	status := doJSON(t, engine, http.MethodGet, "/api/subscriptions/status", token, nil)
	var statusResp struct {
		HasActiveSubscription bool   `json:"hasActiveSubscription"`
		Plan                  string `json:"plan"`
		AutoRenew             bool   `json:"autoRenew"`
	}
	decode(t, status, &statusResp)
	if !statusResp.HasActiveSubscription || statusResp.Plan != "basic" || !statusResp.AutoRenew {
		t.Fatalf("unexpected status: %+v", statusResp)
	}

	same := doJSON(t, engine, http.MethodPost, "/api/transactions/initiate", token, gin.H{
		"plan":         "basic",
		"billingCycle": "monthly",
	})
	if same.Code != http.StatusConflict {
		t.Fatalf("same plan: expected 409, got %d", same.Code)
	}
	var sameResp struct {
		Status string `json:"status"`
	}
	decode(t, same, &sameResp)
	if sameResp.Status != "already_subscribed" {
		t.Fatalf("expected already_subscribed, got %q", sameResp.Status)
	}

	upgrade := doJSON(t, engine, http.MethodPost, "/api/transactions/initiate", token, gin.H{
		"plan":         "premium",
		"billingCycle": "annual",
	})
	if upgrade.Code != http.StatusConflict {
		t.Fatalf("upgrade without confirmation: expected 409, got %d", upgrade.Code)
	}
	var upgradeResp struct {
		Status        string `json:"status"`
		CurrentPlan   string `json:"currentPlan"`
		RequestedPlan string `json:"requestedPlan"`
	}
	decode(t, upgrade, &upgradeResp)
	if upgradeResp.Status != "upgrade_available" || upgradeResp.CurrentPlan != "basic" || upgradeResp.RequestedPlan != "premium" {
		t.Fatalf("unexpected upgrade conflict: %+v", upgradeResp)
	}

	confirmed := doJSON(t, engine, http.MethodPost, "/api/transactions/initiate", token, gin.H{
		"plan":           "premium",
		"billingCycle":   "annual",
		"confirmUpgrade": true,
	})
	if confirmed.Code != http.StatusOK {
		t.Fatalf("confirmed upgrade: expected 200, got %d: %s", confirmed.Code, confirmed.Body.String())
	}
	var confirmedResp struct {
		IsUpgrade bool `json:"isUpgrade"`
	}
	decode(t, confirmed, &confirmedResp)
	if !confirmedResp.IsUpgrade {
		t.Fatal("confirmed upgrade must be flagged as upgrade")
	}
}

func TestSubscribeDeclinedCardKeepsTransactionPending(t *testing.T) {
	engine, _ := newTestServer(t)
	token := signupUser(t, engine, "declined@example.com")

	rec := doJSON(t, engine, http.MethodPost, "/api/transactions/initiate", token, gin.H{
		"plan":         "basic",
		"billingCycle": "monthly",
	})
	var initiate struct {
		TransactionID string `json:"transactionId"`
	}
	decode(t, rec, &initiate)

	declined := doJSON(t, engine, http.MethodPost, "/api/transactions/subscribe", token, gin.H{
		"transactionId": initiate.TransactionID,
		"paymentMethod": "card",
		"cardNumber":    "4111111111110000",
		"cardName":      "Test Investor",
		"expiryDate":    "12/30",
		"cvv":           "123",
	})
	if declined.Code != http.StatusPaymentRequired {
		t.Fatalf("declined card: expected 402, got %d: %s", declined.Code, declined.Body.String())
	}

	pending := doJSON(t, engine, http.MethodGet, "/api/transactions/pending", token, nil)
	if pending.Code != http.StatusOK {
		t.Fatalf("pending after decline: expected 200, got %d", pending.Code)
	}
	var pendingResp struct {
		TransactionID string `json:"transactionId"`
	}
	decode(t, pending, &pendingResp)
	if pendingResp.TransactionID != initiate.TransactionID {
		t.Fatalf("expected pending transaction %s, got %s", initiate.TransactionID, pendingResp.TransactionID)
	}
}

func TestSubscribeValidatesInstrument(t *testing.T) {
	engine, _ := newTestServer(t)
	token := signupUser(t, engine, "validation@example.com")

	rec := doJSON(t, engine, http.MethodPost, "/api/transactions/initiate", token, gin.H{
		"plan":         "basic",
		"billingCycle": "monthly",
	})
	var initiate struct {
		TransactionID string `json:"transactionId"`
	}
	decode(t, rec, &initiate)

	missingCVV := doJSON(t, engine, http.MethodPost, "/api/transactions/subscribe", token, gin.H{
		"transactionId": initiate.TransactionID,
		"paymentMethod": "card",
		"cardNumber":    "4111111111111111",
		"cardName":      "Test Investor",
		"expiryDate":    "12/30",
	})
	if missingCVV.Code != http.StatusBadRequest {
		t.Fatalf("missing cvv: expected 400, got %d", missingCVV.Code)
	}

	missingUPI := doJSON(t, engine, http.MethodPost, "/api/transactions/subscribe", token, gin.H{
		"transactionId": initiate.TransactionID,
		"paymentMethod": "upi",
	})
	if missingUPI.Code != http.StatusBadRequest {
		t.Fatalf("missing upi id: expected 400, got %d", missingUPI.Code)
	}

	badMethod := doJSON(t, engine, http.MethodPost, "/api/transactions/subscribe", token, gin.H{
		"transactionId": initiate.TransactionID,
		"paymentMethod": "cheque",
	})
	if badMethod.Code != http.StatusBadRequest {
		t.Fatalf("unknown method: expected 400, got %d", badMethod.Code)
	}
}

func TestCancelPendingTransaction(t *testing.T) {
	engine, _ := newTestServer(t)
	token := signupUser(t, engine, "pending@example.com")

	rec := doJSON(t, engine, http.MethodPost, "/api/transactions/initiate", token, gin.H{
		"plan":         "premium",
		"billingCycle": "monthly",
	})
	var initiate struct {
		TransactionID string `json:"transactionId"`
	}
	decode(t, rec, &initiate)

	cancel := doJSON(t, engine, http.MethodPost, "/api/transactions/"+initiate.TransactionID+"/cancel", token, nil)
	if cancel.Code != http.StatusOK {
		t.Fatalf("cancel pending: expected 200, got %d: %s", cancel.Code, cancel.Body.String())
	}

	pending := doJSON(t, engine, http.MethodGet, "/api/transactions/pending", token, nil)
	if pending.Code != http.StatusNotFound {
		t.Fatalf("pending after cancel: expected 404, got %d", pending.Code)
	}
}

func TestCancelSubscriptionKeepsAccessUntilPeriodEnd(t *testing.T) {
	engine, _ := newTestServer(t)
	token := signupUser(t, engine, "cancel@example.com")
	subscribePlan(t, engine, token, "basic", "monthly", false)

	cancel := doJSON(t, engine, http.MethodPost, "/api/subscriptions/cancel", token, gin.H{
		"reason":   "too expensive",
		"feedback": "great product otherwise",
	})
	if cancel.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", cancel.Code, cancel.Body.String())
	}
	var cancelResp struct {
		Status    string `json:"status"`
		AutoRenew bool   `json:"autoRenew"`
	}
	decode(t, cancel, &cancelResp)
	if cancelResp.Status != "cancelling" || cancelResp.AutoRenew {
		t.Fatalf("unexpected cancel response: %+v", cancelResp)
	}

	status := doJSON(t, engine, http.MethodGet, "/api/subscriptions/status", token, nil)
	var statusResp struct {
		HasActiveSubscription bool `json:"hasActiveSubscription"`
	}
	decode(t, status, &statusResp)
	if !statusResp.HasActiveSubscription {
		t.Fatal("cancelling subscription must keep access until period end")
	}

	again := doJSON(t, engine, http.MethodPost, "/api/subscriptions/cancel", token, gin.H{"reason": "twice"})
	if again.Code != http.StatusBadRequest {
		t.Fatalf("repeat cancel: expected 400, got %d", again.Code)
	}
}

// seedStocks inserts trending halal stocks in rank order.
func seedStocks(t *testing.T, conn *gorm.DB, count int) {
	t.Helper()
	for i := 1; i <= count; i++ {
		stock := models.Stock{
			Symbol:           fmt.Sprintf("STK%d", i),
			CompanyName:      fmt.Sprintf("Company %d", i),
			Sector:           "Technology",
			ComplianceStatus: models.ComplianceHalal,
			ComplianceScore:  float64(100 - i),
			TrendingRank:     i,
		}
		if errCreate := conn.Create(&stock).Error; errCreate != nil {
			t.Fatalf("seed stock %d: %v", i, errCreate)
		}
	}
}

func TestTrendingVisibilityByPlan(t *testing.T) {
	engine, conn := newTestServer(t)
	seedStocks(t, conn, 4)

	anon := doJSON(t, engine, http.MethodGet, "/api/stocks/trending", "", nil)
	if anon.Code != http.StatusOK {
		t.Fatalf("anonymous trending: expected 200, got %d", anon.Code)
	}
	var anonResp struct {
		Stocks []struct {
			Symbol     string `json:"symbol"`
			Visibility string `json:"visibility"`
		} `json:"stocks"`
	}
	decode(t, anon, &anonResp)
	if len(anonResp.Stocks) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(anonResp.Stocks))
	}
	for i, row := range anonResp.Stocks {
		want := "blurred"
		if i < 2 {
			want = "visible"
		}
		if row.Visibility != want {
			t.Fatalf("row %d: expected %s, got %s", i, want, row.Visibility)
		}
	}

	token := signupUser(t, engine, "visibility@example.com")
	subscribePlan(t, engine, token, "basic", "monthly", false)

	paid := doJSON(t, engine, http.MethodGet, "/api/stocks/trending", token, nil)
	var paidResp struct {
		Stocks []struct {
			Visibility string `json:"visibility"`
		} `json:"stocks"`
	}
	decode(t, paid, &paidResp)
	for i, row := range paidResp.Stocks {
		if row.Visibility != "visible" {
			t.Fatalf("paid row %d: expected visible, got %s", i, row.Visibility)
		}
	}
}

func TestStockSearch(t *testing.T) {
	engine, conn := newTestServer(t)
	seedStocks(t, conn, 3)

	missing := doJSON(t, engine, http.MethodGet, "/api/stocks/search", "", nil)
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("empty query: expected 400, got %d", missing.Code)
	}

	rec := doJSON(t, engine, http.MethodGet, "/api/stocks/search?q=company", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Stocks []struct {
			Symbol string `json:"symbol"`
		} `json:"stocks"`
	}
	decode(t, rec, &resp)
	if len(resp.Stocks) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(resp.Stocks))
	}

	one := doJSON(t, engine, http.MethodGet, "/api/stocks/search?q=STK2", "", nil)
	decode(t, one, &resp)
	if len(resp.Stocks) != 1 || resp.Stocks[0].Symbol != "STK2" {
		t.Fatalf("expected STK2 only, got %+v", resp.Stocks)
	}
}

func TestWatchlistRequiresPaidPlan(t *testing.T) {
	engine, _ := newTestServer(t)
	token := signupUser(t, engine, "watchlist@example.com")

	blocked := doJSON(t, engine, http.MethodPost, "/api/watchlist", token, gin.H{"symbol": "TCS"})
	if blocked.Code != http.StatusForbidden {
		t.Fatalf("free watchlist: expected 403, got %d", blocked.Code)
	}
	var blockedResp struct {
		Error string `json:"error"`
	}
	decode(t, blocked, &blockedResp)
	if blockedResp.Error != "Watchlist requires a paid plan" {
		t.Fatalf("unexpected error message: %q", blockedResp.Error)
	}

	subscribePlan(t, engine, token, "basic", "monthly", false)

	added := doJSON(t, engine, http.MethodPost, "/api/watchlist", token, gin.H{
		"symbol":      "tcs",
		"companyName": "Tata Consultancy Services",
	})
	if added.Code != http.StatusCreated {
		t.Fatalf("add watchlist: expected 201, got %d: %s", added.Code, added.Body.String())
	}

	list := doJSON(t, engine, http.MethodGet, "/api/watchlist", token, nil)
	var listResp struct {
		Watchlist []struct {
			Symbol string `json:"symbol"`
		} `json:"watchlist"`
	}
	decode(t, list, &listResp)
	if len(listResp.Watchlist) != 1 || listResp.Watchlist[0].Symbol != "TCS" {
		t.Fatalf("unexpected watchlist: %+v", listResp.Watchlist)
	}

	removed := doJSON(t, engine, http.MethodDelete, "/api/watchlist/TCS", token, nil)
	if removed.Code != http.StatusOK {
		t.Fatalf("remove watchlist: expected 200, got %d", removed.Code)
	}
	missing := doJSON(t, engine, http.MethodDelete, "/api/watchlist/TCS", token, nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("remove missing: expected 404, got %d", missing.Code)
	}
}

func TestNotificationsAfterPayment(t *testing.T) {
	engine, _ := newTestServer(t)
	token := signupUser(t, engine, "notify@example.com")
	subscribePlan(t, engine, token, "premium", "annual", false)

	list := doJSON(t, engine, http.MethodGet, "/api/notifications", token, nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list notifications: expected 200, got %d", list.Code)
	}
	var listResp struct {
		Notifications []struct {
			ID   uint64 `json:"id"`
			Type string `json:"type"`
			Read bool   `json:"read"`
		} `json:"notifications"`
	}
	decode(t, list, &listResp)
	if len(listResp.Notifications) == 0 {
		t.Fatal("expected a payment notification")
	}
	first := listResp.Notifications[0]
	if first.Type != "payment" || first.Read {
		t.Fatalf("unexpected notification: %+v", first)
	}

	read := doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", first.ID), token, nil)
	if read.Code != http.StatusOK {
		t.Fatalf("mark read: expected 200, got %d", read.Code)
	}
}

func TestAuthedRoutesRejectMissingToken(t *testing.T) {
	engine, _ := newTestServer(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/subscriptions/status", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/transactions", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", rec.Code)
	}
}
