package service

import (
	"encoding/json"

	"github.com/mmynk/debtledger/internal/calculator"
	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/models"
)

// Service names, used as the first path segment of every procedure.
const (
	LedgerServiceName = "debtledger.v1.LedgerService"
	LockServiceName   = "debtledger.v1.LockService"
	BackupServiceName = "debtledger.v1.BackupService"
)

// Ledger procedures.
const (
	ListPeopleProcedure       = "/" + LedgerServiceName + "/ListPeople"
	GetPersonProcedure        = "/" + LedgerServiceName + "/GetPerson"
	CreatePersonProcedure     = "/" + LedgerServiceName + "/CreatePerson"
	UpdatePersonProcedure     = "/" + LedgerServiceName + "/UpdatePerson"
	DeletePersonProcedure     = "/" + LedgerServiceName + "/DeletePerson"
	ImportContactsProcedure   = "/" + LedgerServiceName + "/ImportContacts"
	ListDebtsProcedure        = "/" + LedgerServiceName + "/ListDebts"
	GetDebtProcedure          = "/" + LedgerServiceName + "/GetDebt"
	CreateDebtProcedure       = "/" + LedgerServiceName + "/CreateDebt"
	UpdateDebtProcedure       = "/" + LedgerServiceName + "/UpdateDebt"
	DeleteDebtProcedure       = "/" + LedgerServiceName + "/DeleteDebt"
	TogglePaidProcedure       = "/" + LedgerServiceName + "/TogglePaid"
	ListTransactionsProcedure = "/" + LedgerServiceName + "/ListTransactions"
	GetDashboardProcedure     = "/" + LedgerServiceName + "/GetDashboard"
	GetBalancesProcedure      = "/" + LedgerServiceName + "/GetBalances"
	ListCurrenciesProcedure   = "/" + LedgerServiceName + "/ListCurrencies"
	AddCurrencyProcedure      = "/" + LedgerServiceName + "/AddCurrency"
	RemoveCurrencyProcedure   = "/" + LedgerServiceName + "/RemoveCurrency"
)

// Lock procedures.
const (
	GetLockStateProcedure = "/" + LockServiceName + "/GetState"
	SubmitPinProcedure    = "/" + LockServiceName + "/SubmitPin"
	ForgotPinProcedure    = "/" + LockServiceName + "/ForgotPin"
	EnablePinProcedure    = "/" + LockServiceName + "/EnablePin"
	SetPinProcedure       = "/" + LockServiceName + "/SetPin"
	DisablePinProcedure   = "/" + LockServiceName + "/DisablePin"
)

// Backup procedures.
const (
	ExportProcedure = "/" + BackupServiceName + "/Export"
	ImportProcedure = "/" + BackupServiceName + "/Import"
	ClearProcedure  = "/" + BackupServiceName + "/Clear"
)

type Empty struct{}

type IDRequest struct {
	ID string `json:"id"`
}

type PersonResponse struct {
	Person models.Person `json:"person"`
}

type ListPeopleResponse struct {
	People []models.Person `json:"people"`
}

type GetPersonResponse struct {
	Person  models.Person            `json:"person"`
	Summary calculator.PersonSummary `json:"summary"`
	Debts   []models.Debt            `json:"debts"`
}

type ImportContactsRequest struct {
	Contacts []ledger.Contact `json:"contacts"`
}

type DebtResponse struct {
	Debt models.Debt `json:"debt"`
}

type ListDebtsResponse struct {
	Debts []models.Debt `json:"debts"`
}

type GetDebtResponse struct {
	Debt         models.Debt          `json:"debt"`
	Transactions []models.Transaction `json:"transactions"`
}

type ListTransactionsResponse struct {
	Transactions []ledger.EnrichedTransaction `json:"transactions"`
}

type BalancesResponse struct {
	Balances []calculator.PersonBalance `json:"balances"`
}

type CurrencyRequest struct {
	Code string `json:"code"`
}

type CurrenciesResponse struct {
	Currencies []string `json:"currencies"`
	Default    string   `json:"default"`
}

type LockStateResponse struct {
	State string `json:"state"`
	// Notice describes a configuration problem corrected at startup.
	Notice string `json:"notice,omitempty"`
	// Token is set after a successful SubmitPin.
	Token string `json:"token,omitempty"`
}

type SubmitPinRequest struct {
	Pin string `json:"pin"`
}

type SetPinRequest struct {
	Pin     string `json:"pin"`
	Confirm string `json:"confirm"`
}

type ExportResponse struct {
	Filename string          `json:"filename"`
	Document json.RawMessage `json:"document"`
}

type ImportRequest struct {
	Document json.RawMessage `json:"document"`
}

type ImportResponse struct {
	Keys int `json:"keys"`
}

type ClearRequest struct {
	// Confirm must be true; clearing cannot be undone.
	Confirm bool `json:"confirm"`
}

// PublicProcedures may be called while the ledger is locked.
var PublicProcedures = []string{
	GetLockStateProcedure,
	SubmitPinProcedure,
	ForgotPinProcedure,
	EnablePinProcedure,
}
