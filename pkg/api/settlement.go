package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const SettlementServiceName = "settleup.v1.SettlementService"

const (
	SettlementServiceGetSettlementPlanProcedure = "/" + SettlementServiceName + "/GetSettlementPlan"
	SettlementServiceRecordSettlementProcedure  = "/" + SettlementServiceName + "/RecordSettlement"
	SettlementServiceListSettlementsProcedure   = "/" + SettlementServiceName + "/ListSettlements"
)

// SettlementServiceHandler is implemented by the server side of SettlementService.
type SettlementServiceHandler interface {
	GetSettlementPlan(context.Context, *connect.Request[GetSettlementPlanRequest]) (*connect.Response[GetSettlementPlanResponse], error)
	RecordSettlement(context.Context, *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serviceHandler(SettlementServiceName, map[string]http.Handler{
		SettlementServiceGetSettlementPlanProcedure: connect.NewUnaryHandler(SettlementServiceGetSettlementPlanProcedure, svc.GetSettlementPlan, opts...),
		SettlementServiceRecordSettlementProcedure:  connect.NewUnaryHandler(SettlementServiceRecordSettlementProcedure, svc.RecordSettlement, opts...),
		SettlementServiceListSettlementsProcedure:   connect.NewUnaryHandler(SettlementServiceListSettlementsProcedure, svc.ListSettlements, opts...),
	})
}

// SettlementServiceClient calls SettlementService.
type SettlementServiceClient interface {
	GetSettlementPlan(context.Context, *connect.Request[GetSettlementPlanRequest]) (*connect.Response[GetSettlementPlanResponse], error)
	RecordSettlement(context.Context, *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error)
}

type settlementServiceClient struct {
	getSettlementPlan *connect.Client[GetSettlementPlanRequest, GetSettlementPlanResponse]
	recordSettlement  *connect.Client[RecordSettlementRequest, RecordSettlementResponse]
	listSettlements   *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
}

// NewSettlementServiceClient returns a client for the server at baseURL.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SettlementServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &settlementServiceClient{
		getSettlementPlan: connect.NewClient[GetSettlementPlanRequest, GetSettlementPlanResponse](httpClient, baseURL+SettlementServiceGetSettlementPlanProcedure, opts...),
		recordSettlement:  connect.NewClient[RecordSettlementRequest, RecordSettlementResponse](httpClient, baseURL+SettlementServiceRecordSettlementProcedure, opts...),
		listSettlements:   connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+SettlementServiceListSettlementsProcedure, opts...),
	}
}

func (c *settlementServiceClient) GetSettlementPlan(ctx context.Context, req *connect.Request[GetSettlementPlanRequest]) (*connect.Response[GetSettlementPlanResponse], error) {
	return c.getSettlementPlan.CallUnary(ctx, req)
}

func (c *settlementServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

// UnimplementedSettlementServiceHandler returns CodeUnimplemented from every method.
type UnimplementedSettlementServiceHandler struct{}

func (UnimplementedSettlementServiceHandler) GetSettlementPlan(context.Context, *connect.Request[GetSettlementPlanRequest]) (*connect.Response[GetSettlementPlanResponse], error) {
	return nil, unimplemented(SettlementServiceGetSettlementPlanProcedure)
}

func (UnimplementedSettlementServiceHandler) RecordSettlement(context.Context, *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	return nil, unimplemented(SettlementServiceRecordSettlementProcedure)
}

func (UnimplementedSettlementServiceHandler) ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return nil, unimplemented(SettlementServiceListSettlementsProcedure)
}
