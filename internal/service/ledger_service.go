package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/internal/calculator"
	"github.com/mmynk/debtledger/internal/config"
	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/models"
)

// LedgerService serves people, debts, transactions, summaries and the
// currency list.
type LedgerService struct {
	ledger   *ledger.Ledger
	settings *config.Settings
	now      func() time.Time
	logger   *slog.Logger
}

// NewLedgerService creates the ledger RPC service.
func NewLedgerService(l *ledger.Ledger, settings *config.Settings, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{ledger: l, settings: settings, now: time.Now, logger: logger}
}

// Handler returns the mount path and the HTTP handler of the service.
func (s *LedgerService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	r := newRouter(opts)
	handle(r, ListPeopleProcedure, s.ListPeople)
	handle(r, GetPersonProcedure, s.GetPerson)
	handle(r, CreatePersonProcedure, s.CreatePerson)
	handle(r, UpdatePersonProcedure, s.UpdatePerson)
	handle(r, DeletePersonProcedure, s.DeletePerson)
	handle(r, ImportContactsProcedure, s.ImportContacts)
	handle(r, ListDebtsProcedure, s.ListDebts)
	handle(r, GetDebtProcedure, s.GetDebt)
	handle(r, CreateDebtProcedure, s.CreateDebt)
	handle(r, UpdateDebtProcedure, s.UpdateDebt)
	handle(r, DeleteDebtProcedure, s.DeleteDebt)
	handle(r, TogglePaidProcedure, s.TogglePaid)
	handle(r, ListTransactionsProcedure, s.ListTransactions)
	handle(r, GetDashboardProcedure, s.GetDashboard)
	handle(r, GetBalancesProcedure, s.GetBalances)
	handle(r, ListCurrenciesProcedure, s.ListCurrencies)
	handle(r, AddCurrencyProcedure, s.AddCurrency)
	handle(r, RemoveCurrencyProcedure, s.RemoveCurrency)
	return servicePath(LedgerServiceName), r.mux
}

// ListPeople returns the people matching the filter, sorted by name.
func (s *LedgerService) ListPeople(_ context.Context, req *ledger.PersonFilter) (*ListPeopleResponse, error) {
	people := ledger.FilterPeople(s.ledger.People.List(), *req)
	return &ListPeopleResponse{People: people}, nil
}

// GetPerson returns a person with their unpaid summary and debts.
func (s *LedgerService) GetPerson(_ context.Context, req *IDRequest) (*GetPersonResponse, error) {
	p, err := s.ledger.People.Get(req.ID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetPerson", err)
	}
	debts := s.ledger.Debts.List()
	return &GetPersonResponse{
		Person:  p,
		Summary: calculator.SummarizePerson(debts, p.ID),
		Debts:   ledger.FilterDebts(debts, nil, ledger.DebtFilter{PersonID: p.ID}, s.now()),
	}, nil
}

func (s *LedgerService) CreatePerson(ctx context.Context, req *models.Person) (*PersonResponse, error) {
	s.logger.Info("CreatePerson request received", "type", req.Type)
	p, err := s.ledger.People.Create(ctx, *req)
	if err != nil {
		return nil, toConnectError(s.logger, "CreatePerson", err)
	}
	return &PersonResponse{Person: p}, nil
}

func (s *LedgerService) UpdatePerson(ctx context.Context, req *models.Person) (*PersonResponse, error) {
	s.logger.Info("UpdatePerson request received", "person_id", req.ID)
	p, err := s.ledger.People.Update(ctx, *req)
	if err != nil {
		return nil, toConnectError(s.logger, "UpdatePerson", err)
	}
	return &PersonResponse{Person: p}, nil
}

// DeletePerson fails with FailedPrecondition while the person has unpaid debts.
func (s *LedgerService) DeletePerson(ctx context.Context, req *IDRequest) (*Empty, error) {
	s.logger.Info("DeletePerson request received", "person_id", req.ID)
	if err := s.ledger.People.Delete(ctx, req.ID); err != nil {
		return nil, toConnectError(s.logger, "DeletePerson", err)
	}
	return &Empty{}, nil
}

// ImportContacts merges the contacts picked on the client.
func (s *LedgerService) ImportContacts(ctx context.Context, req *ImportContactsRequest) (*ledger.ContactImport, error) {
	provider := ledger.ContactProviderFunc(func(context.Context) ([]ledger.Contact, error) {
		return req.Contacts, nil
	})
	res, err := s.ledger.ImportContacts(ctx, provider)
	if err != nil {
		return nil, toConnectError(s.logger, "ImportContacts", err)
	}
	if res.Added == nil {
		res.Added = []models.Person{}
	}
	return &res, nil
}

// ListDebts returns the debts matching the filter, newest first.
func (s *LedgerService) ListDebts(_ context.Context, req *ledger.DebtFilter) (*ListDebtsResponse, error) {
	debts := ledger.FilterDebts(s.ledger.Debts.List(), s.ledger.People.List(), *req, s.now())
	return &ListDebtsResponse{Debts: debts}, nil
}

// GetDebt returns a debt with its audit history.
func (s *LedgerService) GetDebt(_ context.Context, req *IDRequest) (*GetDebtResponse, error) {
	d, err := s.ledger.Debts.Get(req.ID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetDebt", err)
	}
	txs := s.ledger.Transactions.ForDebt(d.ID)
	if txs == nil {
		txs = []models.Transaction{}
	}
	return &GetDebtResponse{Debt: d, Transactions: txs}, nil
}

func (s *LedgerService) CreateDebt(ctx context.Context, req *models.Debt) (*DebtResponse, error) {
	s.logger.Info("CreateDebt request received",
		"person_id", req.PersonID,
		"currency", req.Currency,
		"type", req.Type,
	)
	d, err := s.ledger.Debts.Create(ctx, *req)
	if err != nil {
		return nil, toConnectError(s.logger, "CreateDebt", err)
	}
	return &DebtResponse{Debt: d}, nil
}

func (s *LedgerService) UpdateDebt(ctx context.Context, req *models.Debt) (*DebtResponse, error) {
	s.logger.Info("UpdateDebt request received", "debt_id", req.ID)
	d, err := s.ledger.Debts.Update(ctx, *req)
	if err != nil {
		return nil, toConnectError(s.logger, "UpdateDebt", err)
	}
	return &DebtResponse{Debt: d}, nil
}

func (s *LedgerService) DeleteDebt(ctx context.Context, req *IDRequest) (*Empty, error) {
	s.logger.Info("DeleteDebt request received", "debt_id", req.ID)
	if err := s.ledger.Debts.Delete(ctx, req.ID); err != nil {
		return nil, toConnectError(s.logger, "DeleteDebt", err)
	}
	return &Empty{}, nil
}

func (s *LedgerService) TogglePaid(ctx context.Context, req *IDRequest) (*DebtResponse, error) {
	s.logger.Info("TogglePaid request received", "debt_id", req.ID)
	d, err := s.ledger.Debts.TogglePaid(ctx, req.ID)
	if err != nil {
		return nil, toConnectError(s.logger, "TogglePaid", err)
	}
	return &DebtResponse{Debt: d}, nil
}

// ListTransactions returns the audit log joined with debts and people.
func (s *LedgerService) ListTransactions(_ context.Context, req *ledger.TransactionFilter) (*ListTransactionsResponse, error) {
	enriched := ledger.EnrichTransactions(
		s.ledger.Transactions.List(),
		s.ledger.Debts.List(),
		s.ledger.People.List(),
	)
	return &ListTransactionsResponse{Transactions: ledger.FilterTransactions(enriched, *req)}, nil
}

func (s *LedgerService) GetDashboard(_ context.Context, _ *Empty) (*calculator.Dashboard, error) {
	d := calculator.BuildDashboard(s.ledger.Debts.List(), s.ledger.People.List(), s.now())
	return &d, nil
}

func (s *LedgerService) GetBalances(_ context.Context, _ *Empty) (*BalancesResponse, error) {
	return &BalancesResponse{Balances: calculator.NetBalances(s.ledger.Debts.List())}, nil
}

func (s *LedgerService) ListCurrencies(_ context.Context, _ *Empty) (*CurrenciesResponse, error) {
	return s.currencies(), nil
}

// AddCurrency upper-cases the code and appends it to the list.
func (s *LedgerService) AddCurrency(ctx context.Context, req *CurrencyRequest) (*CurrenciesResponse, error) {
	if _, err := s.settings.AddCurrency(ctx, req.Code); err != nil {
		return nil, toConnectError(s.logger, "AddCurrency", err)
	}
	return s.currencies(), nil
}

func (s *LedgerService) RemoveCurrency(ctx context.Context, req *CurrencyRequest) (*CurrenciesResponse, error) {
	if err := s.settings.RemoveCurrency(ctx, req.Code); err != nil {
		return nil, toConnectError(s.logger, "RemoveCurrency", err)
	}
	return s.currencies(), nil
}

func (s *LedgerService) currencies() *CurrenciesResponse {
	return &CurrenciesResponse{
		Currencies: s.settings.Currencies(),
		Default:    s.settings.DefaultCurrency(),
	}
}
