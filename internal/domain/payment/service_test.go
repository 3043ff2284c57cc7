package payment

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"hesap/internal/core/apperror"
	"hesap/internal/core/entity"
	"hesap/internal/core/event"
	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/core/tx"
	"hesap/internal/core/types"
	"hesap/internal/domain/account"
	"hesap/internal/domain/catalog"
	"hesap/internal/domain/invoice"
)

type memRepo struct {
	rows map[id.ID]Payment
}

func (r *memRepo) Create(_ context.Context, p *Payment) error {
	if p.Reference != nil {
		for _, row := range r.rows {
			if !row.DeletionMark && row.Reference != nil && *row.Reference == *p.Reference {
				return apperror.NewDuplicate("payment", "reference", *p.Reference)
			}
		}
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *memRepo) GetByID(_ context.Context, branchID, paymentID id.ID) (*Payment, error) {
	p, ok := r.rows[paymentID]
	if !ok || p.BranchID != branchID || p.DeletionMark {
		return nil, apperror.NewNotFound("payment", paymentID)
	}
	return &p, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, branchID, paymentID id.ID) (*Payment, error) {
	return r.GetByID(ctx, branchID, paymentID)
}

func (r *memRepo) Update(_ context.Context, p *Payment) error {
	stored, ok := r.rows[p.ID]
	if !ok || stored.Version != p.ExpectedVersion() {
		return apperror.NewConcurrencyConflict("payment", p.ID)
	}
	cp := *p
	cp.Version = stored.Version + 1
	cp.ExpectVersion(0)
	r.rows[p.ID] = cp
	return nil
}

type mapAccounts map[id.ID]*account.Account

func (m mapAccounts) Get(_ context.Context, sc scope.Scope, accountID id.ID) (*account.Account, error) {
	if a, ok := m[accountID]; ok && sc.Owns(a.BranchID) {
		return a, nil
	}
	return nil, apperror.NewNotFound("account", accountID)
}

type mapInvoices map[id.ID]*invoice.Invoice

func (m mapInvoices) Get(_ context.Context, sc scope.Scope, invoiceID id.ID) (*invoice.Invoice, error) {
	if inv, ok := m[invoiceID]; ok && sc.Owns(inv.BranchID) {
		return inv, nil
	}
	return nil, apperror.NewNotFound("invoice", invoiceID)
}

type mapContacts map[id.ID]*catalog.Contact

func (m mapContacts) GetContact(_ context.Context, sc scope.Scope, contactID id.ID) (*catalog.Contact, error) {
	if c, ok := m[contactID]; ok && sc.Owns(c.BranchID) {
		return c, nil
	}
	return nil, apperror.NewNotFound("contact", contactID)
}

type mockBalances struct {
	mock.Mock
}

func (m *mockBalances) RecalculateInvoice(ctx context.Context, invoiceID id.ID) (decimal.Decimal, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockBalances) RecalculateAccount(ctx context.Context, accountID id.ID) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type PaymentServiceSuite struct {
	suite.Suite

	ctx      context.Context
	sc       scope.Scope
	repo     *memRepo
	balances *mockBalances
	svc      *Service

	cash     *account.Account
	bank     *account.Account
	contact  *catalog.Contact
	other    *catalog.Contact
	invoiceA *invoice.Invoice
	invoiceB *invoice.Invoice
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.sc = scope.New(id.New(), "u1")
	s.repo = &memRepo{rows: map[id.ID]Payment{}}
	s.balances = &mockBalances{}

	newAccount := func(currency string) *account.Account {
		return &account.Account{BaseEntity: entity.NewBaseEntity(s.sc.BranchID), Currency: currency, Type: account.TypeCash}
	}
	newContact := func() *catalog.Contact {
		return &catalog.Contact{BaseEntity: entity.NewBaseEntity(s.sc.BranchID)}
	}
	s.cash, s.bank = newAccount("TRY"), newAccount("TRY")
	s.contact, s.other = newContact(), newContact()
	newInvoice := func(currency string) *invoice.Invoice {
		return &invoice.Invoice{
			BaseDocument: entity.NewBaseDocument(s.sc.BranchID, "u1"),
			ContactID:    s.contact.ID,
			Currency:     currency,
		}
	}
	s.invoiceA, s.invoiceB = newInvoice("TRY"), newInvoice("TRY")

	s.svc = NewService(Deps{
		Repo:      s.repo,
		Accounts:  mapAccounts{s.cash.ID: s.cash, s.bank.ID: s.bank},
		Invoices:  mapInvoices{s.invoiceA.ID: s.invoiceA, s.invoiceB.ID: s.invoiceB},
		Contacts:  mapContacts{s.contact.ID: s.contact, s.other.ID: s.other},
		Balances:  s.balances,
		TxManager: tx.Inline{},
		Events:    event.Discard{},
	})
}

func (s *PaymentServiceSuite) expectInvoice(invoiceID id.ID) {
	s.balances.On("RecalculateInvoice", mock.Anything, invoiceID).Return(decimal.Zero, nil).Once()
}

func (s *PaymentServiceSuite) expectAccount(accountID id.ID) {
	s.balances.On("RecalculateAccount", mock.Anything, accountID).Return(decimal.Zero, nil).Once()
}

func (s *PaymentServiceSuite) fields(amount string) Fields {
	return Fields{
		AccountID: s.cash.ID,
		InvoiceID: id.Ptr(s.invoiceA.ID),
		Direction: string(DirectionIn),
		Amount:    amount,
		Currency:  "TRY",
	}
}

func (s *PaymentServiceSuite) TestCreate_RecalculatesInvoiceAndAccount() {
	s.expectInvoice(s.invoiceA.ID)
	s.expectAccount(s.cash.ID)

	p, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: s.fields("100.005")})

	s.Require().NoError(err)
	s.Equal("100.01", types.FormatMoney(p.Amount))
	s.Require().NotNil(p.ContactID)
	s.Equal(s.contact.ID, *p.ContactID)
	s.balances.AssertExpectations(s.T())
}

func (s *PaymentServiceSuite) TestCreate_WithoutInvoiceTouchesAccountOnly() {
	s.expectAccount(s.cash.ID)
	f := s.fields("10")
	f.InvoiceID = nil
	f.ContactID = id.Ptr(s.other.ID)
	f.Direction = string(DirectionOut)

	_, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: f})

	s.Require().NoError(err)
	s.balances.AssertExpectations(s.T())
	s.balances.AssertNotCalled(s.T(), "RecalculateInvoice", mock.Anything, mock.Anything)
}

func (s *PaymentServiceSuite) TestCreate_Validation() {
	cases := map[string]func(f *Fields){
		"zero amount":   func(f *Fields) { f.Amount = "0" },
		"negative":      func(f *Fields) { f.Amount = "-5" },
		"bad amount":    func(f *Fields) { f.Amount = "1.000,00" },
		"direction":     func(f *Fields) { f.Direction = "Both" },
		"currency":      func(f *Fields) { f.Currency = "" },
		"missing acct":  func(f *Fields) { f.AccountID = id.Nil() },
		"bad date text": func(f *Fields) { d := "yesterday"; f.Date = &d },
	}
	for name, mutate := range cases {
		f := s.fields("10")
		mutate(&f)
		_, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: f})
		s.True(apperror.IsValidation(err), name)
	}
	s.Empty(s.repo.rows)
}

func (s *PaymentServiceSuite) TestCreate_CurrencyMismatch() {
	s.bank.Currency = "EUR"
	f := s.fields("10")
	f.AccountID = s.bank.ID

	_, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: f})
	s.True(apperror.HasCode(err, CodeCurrencyMismatch))

	s.invoiceB.Currency = "USD"
	f = s.fields("10")
	f.InvoiceID = id.Ptr(s.invoiceB.ID)
	_, err = s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: f})
	s.True(apperror.HasCode(err, CodeCurrencyMismatch))
	s.Empty(s.repo.rows)
}

func (s *PaymentServiceSuite) TestCreate_ContactMismatch() {
	f := s.fields("10")
	f.ContactID = id.Ptr(s.other.ID)

	_, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: f})

	s.True(apperror.HasCode(err, CodeContactMismatch))
}

func (s *PaymentServiceSuite) TestCreate_UnknownReferences() {
	f := s.fields("10")
	f.InvoiceID = id.Ptr(id.New())
	_, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: f})
	s.True(apperror.IsNotFound(err))

	_, err = s.svc.Create(s.ctx, scope.New(id.New(), "u2"), CreateCommand{Fields: s.fields("10")})
	s.True(apperror.IsNotFound(err))
}

func (s *PaymentServiceSuite) TestCreate_DuplicateReference() {
	s.balances.On("RecalculateInvoice", mock.Anything, mock.Anything).Return(decimal.Zero, nil)
	s.balances.On("RecalculateAccount", mock.Anything, mock.Anything).Return(decimal.Zero, nil)
	ref := "CHQ-0001"
	f := s.fields("10")
	f.Reference = &ref

	_, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: f})
	s.Require().NoError(err)
	_, err = s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: f})

	s.True(apperror.HasCode(err, apperror.CodeDuplicate))
}

func (s *PaymentServiceSuite) TestUpdate_RecalculatesOldAndNewLinks() {
	s.expectInvoice(s.invoiceA.ID)
	s.expectAccount(s.cash.ID)
	p, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: s.fields("10")})
	s.Require().NoError(err)

	s.expectInvoice(s.invoiceA.ID)
	s.expectInvoice(s.invoiceB.ID)
	s.expectAccount(s.cash.ID)
	s.expectAccount(s.bank.ID)
	f := s.fields("25")
	f.AccountID = s.bank.ID
	f.InvoiceID = id.Ptr(s.invoiceB.ID)

	updated, err := s.svc.Update(s.ctx, s.sc, p.ID, UpdateCommand{RowVersion: p.RowVersion(), Fields: f})

	s.Require().NoError(err)
	s.Equal(int64(2), updated.Version)
	s.Equal(s.bank.ID, updated.AccountID)
	s.balances.AssertExpectations(s.T())
}

func (s *PaymentServiceSuite) TestUpdate_RecalculatesInLockOrder() {
	s.expectAccount(s.cash.ID)
	f := s.fields("10")
	f.InvoiceID = nil
	p, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: f})
	s.Require().NoError(err)

	var order []id.ID
	record := func(args mock.Arguments) { order = append(order, args.Get(1).(id.ID)) }
	s.balances.On("RecalculateInvoice", mock.Anything, mock.Anything).Return(decimal.Zero, nil).Run(record)
	s.balances.On("RecalculateAccount", mock.Anything, mock.Anything).Return(decimal.Zero, nil).Run(record)
	f.AccountID = s.bank.ID
	f.InvoiceID = id.Ptr(s.invoiceB.ID)
	_, err = s.svc.Update(s.ctx, s.sc, p.ID, UpdateCommand{RowVersion: p.RowVersion(), Fields: f})
	s.Require().NoError(err)

	accounts := []id.ID{s.cash.ID, s.bank.ID}
	slices.SortFunc(accounts, func(a, b id.ID) int { return bytes.Compare(a[:], b[:]) })
	s.Equal(append([]id.ID{s.invoiceB.ID}, accounts...), order)
}

func TestLinks_LockOrder(t *testing.T) {
	a, b, c := id.New(), id.New(), id.New()
	var l links
	for _, x := range []id.ID{c, a, b, a} {
		l.accounts = appendUnique(l.accounts, x)
	}
	l.invoices = []id.ID{b, a}

	l.lockOrder()

	require.Len(t, l.accounts, 3)
	assert.True(t, slices.IsSortedFunc(l.accounts, func(x, y id.ID) int { return bytes.Compare(x[:], y[:]) }))
	assert.True(t, slices.IsSortedFunc(l.invoices, func(x, y id.ID) int { return bytes.Compare(x[:], y[:]) }))
}

func (s *PaymentServiceSuite) TestUpdate_StaleToken() {
	s.balances.On("RecalculateInvoice", mock.Anything, mock.Anything).Return(decimal.Zero, nil)
	s.balances.On("RecalculateAccount", mock.Anything, mock.Anything).Return(decimal.Zero, nil)
	p, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: s.fields("10")})
	s.Require().NoError(err)
	token := p.RowVersion()

	_, err = s.svc.Update(s.ctx, s.sc, p.ID, UpdateCommand{RowVersion: token, Fields: s.fields("20")})
	s.Require().NoError(err)
	_, err = s.svc.Update(s.ctx, s.sc, p.ID, UpdateCommand{RowVersion: token, Fields: s.fields("30")})

	s.True(apperror.IsConcurrencyConflict(err))
	stored, err := s.svc.Get(s.ctx, s.sc, p.ID)
	s.Require().NoError(err)
	s.Equal("20.00", types.FormatMoney(stored.Amount))
}

func (s *PaymentServiceSuite) TestDelete() {
	s.balances.On("RecalculateInvoice", mock.Anything, s.invoiceA.ID).Return(decimal.Zero, nil).Twice()
	s.balances.On("RecalculateAccount", mock.Anything, s.cash.ID).Return(decimal.Zero, nil).Twice()
	p, err := s.svc.Create(s.ctx, s.sc, CreateCommand{Fields: s.fields("10")})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.ctx, s.sc, p.ID, p.RowVersion()))

	_, err = s.svc.Get(s.ctx, s.sc, p.ID)
	s.True(apperror.IsNotFound(err))
	s.balances.AssertExpectations(s.T())
}
