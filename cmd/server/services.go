package main

import (
	"hesap/internal/domain/account"
	"hesap/internal/domain/auth"
	"hesap/internal/domain/balance"
	"hesap/internal/domain/catalog"
	"hesap/internal/domain/expense"
	"hesap/internal/domain/invoice"
	"hesap/internal/domain/order"
	"hesap/internal/domain/payment"
	"hesap/internal/domain/stock"
	"hesap/internal/infrastructure/numerator"
	"hesap/internal/infrastructure/storage/postgres"
	"hesap/internal/infrastructure/storage/postgres/repo"
)

// services holds the wired domain services.
type services struct {
	auth     *auth.Service
	catalog  *catalog.Service
	accounts *account.Service
	balances *balance.Service
	stock    *stock.Service
	invoices *invoice.Service
	payments *payment.Service
	orders   *order.Service
	expenses *expense.Service
}

// newServices builds every service over one transaction manager. Domain
// events go to the transactional outbox.
func newServices(txm *postgres.TxManager, jwtService *auth.JWTService) *services {
	events := postgres.NewOutboxPublisher(txm)
	numbers := numerator.New(txm)

	s := &services{}
	s.auth = auth.NewService(repo.NewUserRepo(txm), jwtService, auth.DefaultServiceConfig())
	s.catalog = catalog.NewService(repo.NewCatalogRepo(txm), txm)
	s.accounts = account.NewService(repo.NewAccountRepo(txm))
	s.balances = balance.NewService(repo.NewBalanceRepo(txm))
	s.stock = stock.NewService(repo.NewStockRepo(txm), stock.CatalogDirectory{Catalog: s.catalog}, txm, events)

	s.invoices = invoice.NewService(invoice.Deps{
		Repo:      repo.NewInvoiceRepo(txm),
		Catalog:   s.catalog,
		Stock:     s.stock,
		Balances:  s.balances,
		Numerator: numbers,
		TxManager: txm,
		Events:    events,
	})
	s.payments = payment.NewService(payment.Deps{
		Repo:      repo.NewPaymentRepo(txm),
		Accounts:  s.accounts,
		Invoices:  s.invoices,
		Contacts:  s.catalog,
		Balances:  s.balances,
		TxManager: txm,
		Events:    events,
	})
	s.orders = order.NewService(order.Deps{
		Repo:      repo.NewOrderRepo(txm),
		Catalog:   s.catalog,
		Invoices:  s.invoices,
		Numerator: numbers,
		TxManager: txm,
		Events:    events,
	})
	s.expenses = expense.NewService(expense.Deps{
		Repo:      repo.NewExpenseRepo(txm),
		Invoices:  s.invoices,
		Numerator: numbers,
		TxManager: txm,
		Events:    events,
	})
	return s
}
