package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const ExpenseServiceName = "settleup.v1.ExpenseService"

const (
	ExpenseServiceCreateExpenseProcedure     = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceListPendingSplitsProcedure = "/" + ExpenseServiceName + "/ListPendingSplits"
	ExpenseServiceSettleSplitProcedure       = "/" + ExpenseServiceName + "/SettleSplit"
)

// ExpenseServiceHandler is implemented by the server side of ExpenseService.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	ListPendingSplits(context.Context, *connect.Request[ListPendingSplitsRequest]) (*connect.Response[ListPendingSplitsResponse], error)
	SettleSplit(context.Context, *connect.Request[SettleSplitRequest]) (*connect.Response[SettleSplitResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler for svc and returns the path
// to mount it on.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serviceHandler(ExpenseServiceName, map[string]http.Handler{
		ExpenseServiceCreateExpenseProcedure:     connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...),
		ExpenseServiceListPendingSplitsProcedure: connect.NewUnaryHandler(ExpenseServiceListPendingSplitsProcedure, svc.ListPendingSplits, opts...),
		ExpenseServiceSettleSplitProcedure:       connect.NewUnaryHandler(ExpenseServiceSettleSplitProcedure, svc.SettleSplit, opts...),
	})
}

// ExpenseServiceClient calls ExpenseService.
type ExpenseServiceClient interface {
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	ListPendingSplits(context.Context, *connect.Request[ListPendingSplitsRequest]) (*connect.Response[ListPendingSplitsResponse], error)
	SettleSplit(context.Context, *connect.Request[SettleSplitRequest]) (*connect.Response[SettleSplitResponse], error)
}

type expenseServiceClient struct {
	createExpense     *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	listPendingSplits *connect.Client[ListPendingSplitsRequest, ListPendingSplitsResponse]
	settleSplit       *connect.Client[SettleSplitRequest, SettleSplitResponse]
}

// NewExpenseServiceClient returns a client for the server at baseURL.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &expenseServiceClient{
		createExpense:     connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		listPendingSplits: connect.NewClient[ListPendingSplitsRequest, ListPendingSplitsResponse](httpClient, baseURL+ExpenseServiceListPendingSplitsProcedure, opts...),
		settleSplit:       connect.NewClient[SettleSplitRequest, SettleSplitResponse](httpClient, baseURL+ExpenseServiceSettleSplitProcedure, opts...),
	}
}

func (c *expenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListPendingSplits(ctx context.Context, req *connect.Request[ListPendingSplitsRequest]) (*connect.Response[ListPendingSplitsResponse], error) {
	return c.listPendingSplits.CallUnary(ctx, req)
}

func (c *expenseServiceClient) SettleSplit(ctx context.Context, req *connect.Request[SettleSplitRequest]) (*connect.Response[SettleSplitResponse], error) {
	return c.settleSplit.CallUnary(ctx, req)
}

// UnimplementedExpenseServiceHandler returns CodeUnimplemented from every method.
type UnimplementedExpenseServiceHandler struct{}

func (UnimplementedExpenseServiceHandler) CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return nil, unimplemented(ExpenseServiceCreateExpenseProcedure)
}

func (UnimplementedExpenseServiceHandler) ListPendingSplits(context.Context, *connect.Request[ListPendingSplitsRequest]) (*connect.Response[ListPendingSplitsResponse], error) {
	return nil, unimplemented(ExpenseServiceListPendingSplitsProcedure)
}

func (UnimplementedExpenseServiceHandler) SettleSplit(context.Context, *connect.Request[SettleSplitRequest]) (*connect.Response[SettleSplitResponse], error) {
	return nil, unimplemented(ExpenseServiceSettleSplitProcedure)
}
