package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/internal/auth"
	"github.com/mmynk/debtledger/internal/backup"
	"github.com/mmynk/debtledger/internal/config"
	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/metrics"
	"github.com/mmynk/debtledger/internal/middleware"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
	"github.com/mmynk/debtledger/internal/storage/sqlite"
)

type testServer struct {
	url   string
	token string
}

// setupTestServer starts all three services over a temp database. seed runs
// against the store before anything is loaded from it.
func setupTestServer(t *testing.T, seed func(ctx context.Context, store storage.Store)) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if seed != nil {
		seed(ctx, store)
	}

	settings := config.NewSettings(ctx, store, nil)
	l := ledger.New(ctx, store, settings, ledger.Options{})
	lock := auth.NewLock(ctx, settings, auth.LockOptions{})
	jwtManager := auth.NewJWTManager([]byte("test-secret"), time.Hour)
	m := metrics.New()
	l.Bus.Subscribe("metrics", m.HandleDebtEvent)
	b := backup.New(store, backup.Options{Validate: true}, settings, l)

	interceptors := connect.WithInterceptors(
		middleware.RequireUnlocked(lock, jwtManager, PublicProcedures...),
		middleware.LoggingInterceptor(nil),
		m.Interceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(NewLedgerService(l, settings, nil).Handler(interceptors))
	mux.Handle(NewLockService(lock, jwtManager, m, nil).Handler(interceptors))
	mux.Handle(NewBackupService(b, m, nil).Handler(interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return &testServer{url: server.URL}
}

func call[Res, Req any](ts *testServer, procedure string, req *Req) (*Res, error) {
	client := connect.NewClient[Req, Res](http.DefaultClient, ts.url+procedure, WithJSON())
	r := connect.NewRequest(req)
	if ts.token != "" {
		r.Header().Set("Authorization", "Bearer "+ts.token)
	}
	resp, err := client.CallUnary(context.Background(), r)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func wantCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	if got := connect.CodeOf(err); got != code {
		t.Fatalf("code = %v, want %v (%v)", got, code, err)
	}
}

func TestCreatePersonAndDebt(t *testing.T) {
	ts := setupTestServer(t, nil)

	person, err := call[PersonResponse](ts, CreatePersonProcedure, &models.Person{Name: "Ali"})
	if err != nil {
		t.Fatalf("CreatePerson failed: %v", err)
	}
	if person.Person.ID == "" {
		t.Fatal("expected person ID to be generated")
	}
	if person.Person.Type != models.PersonIndividual {
		t.Errorf("Type = %q, want individual", person.Person.Type)
	}

	debt, err := call[DebtResponse](ts, CreateDebtProcedure, &models.Debt{
		PersonID: person.Person.ID,
		Amount:   100,
		Currency: "USD",
		Type:     models.OwedToMe,
	})
	if err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}
	if !debt.Debt.CreatedAt.Equal(debt.Debt.UpdatedAt) {
		t.Errorf("createdAt %v != updatedAt %v", debt.Debt.CreatedAt, debt.Debt.UpdatedAt)
	}

	got, err := call[GetPersonResponse](ts, GetPersonProcedure, &IDRequest{ID: person.Person.ID})
	if err != nil {
		t.Fatalf("GetPerson failed: %v", err)
	}
	if got.Summary.OwedToMe["USD"] != 100 {
		t.Errorf("OwedToMe = %v, want USD:100", got.Summary.OwedToMe)
	}
	if len(got.Summary.IOwe) != 0 {
		t.Errorf("IOwe = %v, want empty", got.Summary.IOwe)
	}
	if len(got.Debts) != 1 {
		t.Errorf("expected 1 debt, got %d", len(got.Debts))
	}

	detail, err := call[GetDebtResponse](ts, GetDebtProcedure, &IDRequest{ID: debt.Debt.ID})
	if err != nil {
		t.Fatalf("GetDebt failed: %v", err)
	}
	if len(detail.Transactions) != 1 || detail.Transactions[0].Type != models.TxNewDebt {
		t.Errorf("transactions = %+v, want one new_debt", detail.Transactions)
	}
}

func TestCreateDebt_Invalid(t *testing.T) {
	ts := setupTestServer(t, nil)

	person, err := call[PersonResponse](ts, CreatePersonProcedure, &models.Person{Name: "Ali"})
	if err != nil {
		t.Fatalf("CreatePerson failed: %v", err)
	}

	tests := []struct {
		name string
		debt models.Debt
	}{
		{"missing amount", models.Debt{PersonID: person.Person.ID, Currency: "USD"}},
		{"missing currency", models.Debt{PersonID: person.Person.ID, Amount: 5}},
		{"missing person", models.Debt{Amount: 5, Currency: "USD"}},
		{"currency not listed", models.Debt{PersonID: person.Person.ID, Amount: 5, Currency: "JPY"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call[DebtResponse](ts, CreateDebtProcedure, &tt.debt)
			wantCode(t, err, connect.CodeInvalidArgument)
		})
	}

	list, err := call[ListDebtsResponse](ts, ListDebtsProcedure, &ledger.DebtFilter{})
	if err != nil {
		t.Fatalf("ListDebts failed: %v", err)
	}
	if len(list.Debts) != 0 {
		t.Errorf("expected no debts, got %d", len(list.Debts))
	}
}

func TestGetDebt_NotFound(t *testing.T) {
	ts := setupTestServer(t, nil)

	_, err := call[GetDebtResponse](ts, GetDebtProcedure, &IDRequest{ID: "non-existent-id"})
	wantCode(t, err, connect.CodeNotFound)

	_, err = call[Empty](ts, DeletePersonProcedure, &IDRequest{ID: "non-existent-id"})
	wantCode(t, err, connect.CodeNotFound)
}

func TestDeletePerson_BlockedByActiveDebt(t *testing.T) {
	ts := setupTestServer(t, nil)

	person, _ := call[PersonResponse](ts, CreatePersonProcedure, &models.Person{Name: "Sara"})
	debt, err := call[DebtResponse](ts, CreateDebtProcedure, &models.Debt{
		PersonID: person.Person.ID, Amount: 40, Currency: "EUR", Type: models.IOwe,
	})
	if err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}

	_, err = call[Empty](ts, DeletePersonProcedure, &IDRequest{ID: person.Person.ID})
	wantCode(t, err, connect.CodeFailedPrecondition)

	paid, err := call[DebtResponse](ts, TogglePaidProcedure, &IDRequest{ID: debt.Debt.ID})
	if err != nil {
		t.Fatalf("TogglePaid failed: %v", err)
	}
	if !paid.Debt.IsPaid {
		t.Error("expected debt to be paid")
	}

	if _, err := call[Empty](ts, DeletePersonProcedure, &IDRequest{ID: person.Person.ID}); err != nil {
		t.Fatalf("DeletePerson after paying failed: %v", err)
	}

	txs, err := call[ListTransactionsResponse](ts, ListTransactionsProcedure, &ledger.TransactionFilter{Order: ledger.SortAsc})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs.Transactions))
	}
	if txs.Transactions[1].Type != models.TxDebtPaid {
		t.Errorf("second transaction = %s, want debt_paid", txs.Transactions[1].Type)
	}
	if txs.Transactions[0].PersonName != ledger.UnknownPersonLabel {
		t.Errorf("PersonName = %q, want %q", txs.Transactions[0].PersonName, ledger.UnknownPersonLabel)
	}
}

func TestImportContacts(t *testing.T) {
	ts := setupTestServer(t, nil)
	call[PersonResponse](ts, CreatePersonProcedure, &models.Person{Name: "Ali"})

	res, err := call[ledger.ContactImport](ts, ImportContactsProcedure, &ImportContactsRequest{
		Contacts: []ledger.Contact{{Name: "ALI"}, {Name: "Karim", Phone: "0555"}},
	})
	if err != nil {
		t.Fatalf("ImportContacts failed: %v", err)
	}
	if res.Selected != 2 || len(res.Added) != 1 || res.Added[0].Name != "Karim" {
		t.Errorf("ImportContacts = %+v, want Karim added", res)
	}

	people, _ := call[ListPeopleResponse](ts, ListPeopleProcedure, &ledger.PersonFilter{})
	if len(people.People) != 2 {
		t.Errorf("expected 2 people, got %d", len(people.People))
	}
}

func TestCurrencies(t *testing.T) {
	ts := setupTestServer(t, nil)

	list, err := call[CurrenciesResponse](ts, ListCurrenciesProcedure, &Empty{})
	if err != nil {
		t.Fatalf("ListCurrencies failed: %v", err)
	}
	if list.Default != "DZD" || len(list.Currencies) != 3 {
		t.Errorf("ListCurrencies = %+v, want the defaults", list)
	}

	added, err := call[CurrenciesResponse](ts, AddCurrencyProcedure, &CurrencyRequest{Code: " gbp "})
	if err != nil {
		t.Fatalf("AddCurrency failed: %v", err)
	}
	if added.Currencies[len(added.Currencies)-1] != "GBP" {
		t.Errorf("Currencies = %v, want GBP appended", added.Currencies)
	}

	_, err = call[CurrenciesResponse](ts, AddCurrencyProcedure, &CurrencyRequest{Code: "USD"})
	wantCode(t, err, connect.CodeInvalidArgument)

	_, err = call[CurrenciesResponse](ts, RemoveCurrencyProcedure, &CurrencyRequest{Code: "DZD"})
	wantCode(t, err, connect.CodeFailedPrecondition)

	removed, err := call[CurrenciesResponse](ts, RemoveCurrencyProcedure, &CurrencyRequest{Code: "EUR"})
	if err != nil {
		t.Fatalf("RemoveCurrency failed: %v", err)
	}
	if len(removed.Currencies) != 3 {
		t.Errorf("Currencies = %v, want 3 entries", removed.Currencies)
	}
}

func TestDashboard(t *testing.T) {
	ts := setupTestServer(t, nil)
	person, _ := call[PersonResponse](ts, CreatePersonProcedure, &models.Person{Name: "Ali"})
	due := time.Now().Add(48 * time.Hour)
	call[DebtResponse](ts, CreateDebtProcedure, &models.Debt{PersonID: person.Person.ID, Amount: 10, Currency: "USD", DueDate: &due})
	call[DebtResponse](ts, CreateDebtProcedure, &models.Debt{PersonID: person.Person.ID, Amount: 4, Currency: "USD", Type: models.IOwe})

	d, err := call[struct {
		PeopleCount int                `json:"peopleCount"`
		OwedToMe    map[string]float64 `json:"owedToMe"`
		IOwe        map[string]float64 `json:"iOwe"`
		Reminders   []models.Debt      `json:"reminders"`
	}](ts, GetDashboardProcedure, &Empty{})
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}
	if d.PeopleCount != 1 || d.OwedToMe["USD"] != 10 || d.IOwe["USD"] != 4 || len(d.Reminders) != 1 {
		t.Errorf("unexpected dashboard: %+v", d)
	}

	balances, err := call[BalancesResponse](ts, GetBalancesProcedure, &Empty{})
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	if len(balances.Balances) != 1 || balances.Balances[0].Net != 6 {
		t.Errorf("balances = %+v, want one net 6", balances.Balances)
	}
}

func seedPin(pin string) func(ctx context.Context, store storage.Store) {
	return func(ctx context.Context, store storage.Store) {
		storage.SetJSON(ctx, store, storage.KeyPinEnabled, true)
		storage.SetJSON(ctx, store, storage.KeyPin, pin)
	}
}

func TestLock_GatesLedger(t *testing.T) {
	ts := setupTestServer(t, seedPin("1234"))

	state, err := call[LockStateResponse](ts, GetLockStateProcedure, &Empty{})
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if state.State != "locked" {
		t.Fatalf("State = %q, want locked", state.State)
	}

	_, err = call[ListPeopleResponse](ts, ListPeopleProcedure, &ledger.PersonFilter{})
	wantCode(t, err, connect.CodeUnauthenticated)

	_, err = call[LockStateResponse](ts, SubmitPinProcedure, &SubmitPinRequest{Pin: "0000"})
	wantCode(t, err, connect.CodeUnauthenticated)

	unlocked, err := call[LockStateResponse](ts, SubmitPinProcedure, &SubmitPinRequest{Pin: "1234"})
	if err != nil {
		t.Fatalf("SubmitPin failed: %v", err)
	}
	if unlocked.State != "unlocked" || unlocked.Token == "" {
		t.Fatalf("SubmitPin = %+v, want unlocked with token", unlocked)
	}

	// Unlocked sessions need the token.
	_, err = call[ListPeopleResponse](ts, ListPeopleProcedure, &ledger.PersonFilter{})
	wantCode(t, err, connect.CodeUnauthenticated)

	ts.token = unlocked.Token
	if _, err := call[ListPeopleResponse](ts, ListPeopleProcedure, &ledger.PersonFilter{}); err != nil {
		t.Fatalf("ListPeople with token failed: %v", err)
	}

	disabled, err := call[LockStateResponse](ts, DisablePinProcedure, &Empty{})
	if err != nil {
		t.Fatalf("DisablePin failed: %v", err)
	}
	if disabled.State != "disabled" {
		t.Errorf("State = %q, want disabled", disabled.State)
	}
}

func TestLock_NewSessionWhileUnlocked(t *testing.T) {
	ts := setupTestServer(t, seedPin("1234"))

	first, err := call[LockStateResponse](ts, SubmitPinProcedure, &SubmitPinRequest{Pin: "1234"})
	if err != nil {
		t.Fatalf("SubmitPin failed: %v", err)
	}

	// A reloaded client has lost its token and must face the PIN again.
	_, err = call[ListPeopleResponse](ts, ListPeopleProcedure, &ledger.PersonFilter{})
	wantCode(t, err, connect.CodeUnauthenticated)

	_, err = call[LockStateResponse](ts, SubmitPinProcedure, &SubmitPinRequest{Pin: "0000"})
	wantCode(t, err, connect.CodeUnauthenticated)

	second, err := call[LockStateResponse](ts, SubmitPinProcedure, &SubmitPinRequest{Pin: "1234"})
	if err != nil {
		t.Fatalf("SubmitPin while unlocked failed: %v", err)
	}
	if second.State != "unlocked" || second.Token == "" || second.Token == first.Token {
		t.Fatalf("SubmitPin = %+v, want unlocked with a fresh token", second)
	}

	ts.token = second.Token
	if _, err := call[ListPeopleResponse](ts, ListPeopleProcedure, &ledger.PersonFilter{}); err != nil {
		t.Fatalf("ListPeople with new token failed: %v", err)
	}

	// The earlier session stays valid.
	ts.token = first.Token
	if _, err := call[ListPeopleResponse](ts, ListPeopleProcedure, &ledger.PersonFilter{}); err != nil {
		t.Fatalf("ListPeople with first token failed: %v", err)
	}
}

func TestLock_ForgotPin(t *testing.T) {
	ts := setupTestServer(t, seedPin("1234"))

	res, err := call[LockStateResponse](ts, ForgotPinProcedure, &Empty{})
	if err != nil {
		t.Fatalf("ForgotPin failed: %v", err)
	}
	if res.State != "disabled" {
		t.Errorf("State = %q, want disabled", res.State)
	}
	if _, err := call[ListPeopleResponse](ts, ListPeopleProcedure, &ledger.PersonFilter{}); err != nil {
		t.Fatalf("ListPeople after ForgotPin failed: %v", err)
	}

	_, err = call[LockStateResponse](ts, EnablePinProcedure, &Empty{})
	wantCode(t, err, connect.CodeInvalidArgument)
}

func TestLock_InvalidConfigurationNotice(t *testing.T) {
	ts := setupTestServer(t, func(ctx context.Context, store storage.Store) {
		storage.SetJSON(ctx, store, storage.KeyPinEnabled, true)
	})

	state, err := call[LockStateResponse](ts, GetLockStateProcedure, &Empty{})
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if state.State != "disabled" || state.Notice == "" {
		t.Errorf("GetState = %+v, want disabled with a notice", state)
	}
}

func TestLock_SetPin(t *testing.T) {
	ts := setupTestServer(t, nil)

	_, err := call[LockStateResponse](ts, SetPinProcedure, &SetPinRequest{Pin: "12", Confirm: "12"})
	wantCode(t, err, connect.CodeInvalidArgument)

	res, err := call[LockStateResponse](ts, SetPinProcedure, &SetPinRequest{Pin: "9876", Confirm: "9876"})
	if err != nil {
		t.Fatalf("SetPin failed: %v", err)
	}
	if res.State != "locked" {
		t.Errorf("State = %q, want locked", res.State)
	}

	_, err = call[ListPeopleResponse](ts, ListPeopleProcedure, &ledger.PersonFilter{})
	wantCode(t, err, connect.CodeUnauthenticated)
}

func TestBackup_ExportClearImport(t *testing.T) {
	ts := setupTestServer(t, nil)
	person, _ := call[PersonResponse](ts, CreatePersonProcedure, &models.Person{Name: "Ali"})
	call[DebtResponse](ts, CreateDebtProcedure, &models.Debt{PersonID: person.Person.ID, Amount: 100, Currency: "USD"})

	exported, err := call[ExportResponse](ts, ExportProcedure, &Empty{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(exported.Document, &doc); err != nil {
		t.Fatalf("export document is not an object: %v", err)
	}
	for _, key := range []string{storage.KeyPeople, storage.KeyDebts, storage.KeyTransactions} {
		if _, ok := doc[key]; !ok {
			t.Errorf("export missing %q", key)
		}
	}
	if exported.Filename != backup.Filename(time.Now()) {
		t.Errorf("Filename = %q", exported.Filename)
	}

	_, err = call[Empty](ts, ClearProcedure, &ClearRequest{})
	wantCode(t, err, connect.CodeInvalidArgument)

	if _, err := call[Empty](ts, ClearProcedure, &ClearRequest{Confirm: true}); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	people, _ := call[ListPeopleResponse](ts, ListPeopleProcedure, &ledger.PersonFilter{})
	if len(people.People) != 0 {
		t.Fatalf("expected no people after clear, got %d", len(people.People))
	}

	imported, err := call[ImportResponse](ts, ImportProcedure, &ImportRequest{Document: exported.Document})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if imported.Keys != len(doc) {
		t.Errorf("Keys = %d, want %d", imported.Keys, len(doc))
	}

	got, err := call[GetPersonResponse](ts, GetPersonProcedure, &IDRequest{ID: person.Person.ID})
	if err != nil {
		t.Fatalf("GetPerson after import failed: %v", err)
	}
	if got.Summary.OwedToMe["USD"] != 100 {
		t.Errorf("summary after import = %v, want USD:100", got.Summary.OwedToMe)
	}
}

func TestBackup_ImportMalformed(t *testing.T) {
	ts := setupTestServer(t, nil)

	for _, doc := range []string{`[1,2]`, `{"people": "nope"}`, `"text"`} {
		_, err := call[ImportResponse](ts, ImportProcedure, &ImportRequest{Document: json.RawMessage(doc)})
		wantCode(t, err, connect.CodeInvalidArgument)

		var connectErr *connect.Error
		if !errors.As(err, &connectErr) {
			t.Fatalf("expected *connect.Error, got %T", err)
		}
	}
}
