// Package apiconnect wires the splitledger services to Connect. It mirrors
// the shape of protoc-gen-connect-go output: procedure constants, handler
// interfaces, handler constructors returning (path, http.Handler), and
// typed clients.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/pkg/api"
)

const (
	AuthServiceName    = "splitledger.v1.AuthService"
	LedgerServiceName  = "splitledger.v1.LedgerService"
	GroupServiceName   = "splitledger.v1.GroupService"
	AccountServiceName = "splitledger.v1.AccountService"
)

const (
	AuthServiceSignUpProcedure     = "/splitledger.v1.AuthService/SignUp"
	AuthServiceSignInProcedure     = "/splitledger.v1.AuthService/SignIn"
	AuthServiceSignOutProcedure    = "/splitledger.v1.AuthService/SignOut"
	AuthServiceGetSessionProcedure = "/splitledger.v1.AuthService/GetSession"

	LedgerServiceGetHomeProcedure          = "/splitledger.v1.LedgerService/GetHome"
	LedgerServiceGetActivityProcedure      = "/splitledger.v1.LedgerService/GetActivity"
	LedgerServiceCreateExpenseProcedure    = "/splitledger.v1.LedgerService/CreateExpense"
	LedgerServiceRecordSettlementProcedure = "/splitledger.v1.LedgerService/RecordSettlement"

	GroupServiceListGroupsProcedure  = "/splitledger.v1.GroupService/ListGroups"
	GroupServiceCreateGroupProcedure = "/splitledger.v1.GroupService/CreateGroup"

	AccountServiceGetProfileProcedure = "/splitledger.v1.AccountService/GetProfile"
)

// routes dispatches on the full procedure path.
func routes(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// AuthService

type AuthServiceHandler interface {
	SignUp(context.Context, *connect.Request[api.SignUpRequest]) (*connect.Response[api.SignUpResponse], error)
	SignIn(context.Context, *connect.Request[api.SignInRequest]) (*connect.Response[api.SignInResponse], error)
	SignOut(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error)
	GetSession(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.GetSessionResponse], error)
}

func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AuthServiceName + "/", routes(map[string]http.Handler{
		AuthServiceSignUpProcedure:     connect.NewUnaryHandler(AuthServiceSignUpProcedure, svc.SignUp, opts...),
		AuthServiceSignInProcedure:     connect.NewUnaryHandler(AuthServiceSignInProcedure, svc.SignIn, opts...),
		AuthServiceSignOutProcedure:    connect.NewUnaryHandler(AuthServiceSignOutProcedure, svc.SignOut, opts...),
		AuthServiceGetSessionProcedure: connect.NewUnaryHandler(AuthServiceGetSessionProcedure, svc.GetSession, opts...),
	})
}

type AuthServiceClient interface {
	SignUp(context.Context, *connect.Request[api.SignUpRequest]) (*connect.Response[api.SignUpResponse], error)
	SignIn(context.Context, *connect.Request[api.SignInRequest]) (*connect.Response[api.SignInResponse], error)
	SignOut(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error)
	GetSession(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.GetSessionResponse], error)
}

type authServiceClient struct {
	signUp     *connect.Client[api.SignUpRequest, api.SignUpResponse]
	signIn     *connect.Client[api.SignInRequest, api.SignInResponse]
	signOut    *connect.Client[emptypb.Empty, emptypb.Empty]
	getSession *connect.Client[emptypb.Empty, api.GetSessionResponse]
}

func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &authServiceClient{
		signUp:     connect.NewClient[api.SignUpRequest, api.SignUpResponse](httpClient, baseURL+AuthServiceSignUpProcedure, opts...),
		signIn:     connect.NewClient[api.SignInRequest, api.SignInResponse](httpClient, baseURL+AuthServiceSignInProcedure, opts...),
		signOut:    connect.NewClient[emptypb.Empty, emptypb.Empty](httpClient, baseURL+AuthServiceSignOutProcedure, opts...),
		getSession: connect.NewClient[emptypb.Empty, api.GetSessionResponse](httpClient, baseURL+AuthServiceGetSessionProcedure, opts...),
	}
}

func (c *authServiceClient) SignUp(ctx context.Context, req *connect.Request[api.SignUpRequest]) (*connect.Response[api.SignUpResponse], error) {
	return c.signUp.CallUnary(ctx, req)
}

func (c *authServiceClient) SignIn(ctx context.Context, req *connect.Request[api.SignInRequest]) (*connect.Response[api.SignInResponse], error) {
	return c.signIn.CallUnary(ctx, req)
}

func (c *authServiceClient) SignOut(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	return c.signOut.CallUnary(ctx, req)
}

func (c *authServiceClient) GetSession(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.GetSessionResponse], error) {
	return c.getSession.CallUnary(ctx, req)
}

// LedgerService

type LedgerServiceHandler interface {
	GetHome(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.GetHomeResponse], error)
	GetActivity(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.GetActivityResponse], error)
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	RecordSettlement(context.Context, *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error)
}

func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + LedgerServiceName + "/", routes(map[string]http.Handler{
		LedgerServiceGetHomeProcedure:          connect.NewUnaryHandler(LedgerServiceGetHomeProcedure, svc.GetHome, opts...),
		LedgerServiceGetActivityProcedure:      connect.NewUnaryHandler(LedgerServiceGetActivityProcedure, svc.GetActivity, opts...),
		LedgerServiceCreateExpenseProcedure:    connect.NewUnaryHandler(LedgerServiceCreateExpenseProcedure, svc.CreateExpense, opts...),
		LedgerServiceRecordSettlementProcedure: connect.NewUnaryHandler(LedgerServiceRecordSettlementProcedure, svc.RecordSettlement, opts...),
	})
}

type LedgerServiceClient interface {
	GetHome(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.GetHomeResponse], error)
	GetActivity(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.GetActivityResponse], error)
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	RecordSettlement(context.Context, *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error)
}

type ledgerServiceClient struct {
	getHome          *connect.Client[emptypb.Empty, api.GetHomeResponse]
	getActivity      *connect.Client[emptypb.Empty, api.GetActivityResponse]
	createExpense    *connect.Client[api.CreateExpenseRequest, api.CreateExpenseResponse]
	recordSettlement *connect.Client[api.RecordSettlementRequest, api.RecordSettlementResponse]
}

func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ledgerServiceClient{
		getHome:          connect.NewClient[emptypb.Empty, api.GetHomeResponse](httpClient, baseURL+LedgerServiceGetHomeProcedure, opts...),
		getActivity:      connect.NewClient[emptypb.Empty, api.GetActivityResponse](httpClient, baseURL+LedgerServiceGetActivityProcedure, opts...),
		createExpense:    connect.NewClient[api.CreateExpenseRequest, api.CreateExpenseResponse](httpClient, baseURL+LedgerServiceCreateExpenseProcedure, opts...),
		recordSettlement: connect.NewClient[api.RecordSettlementRequest, api.RecordSettlementResponse](httpClient, baseURL+LedgerServiceRecordSettlementProcedure, opts...),
	}
}

func (c *ledgerServiceClient) GetHome(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.GetHomeResponse], error) {
	return c.getHome.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetActivity(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.GetActivityResponse], error) {
	return c.getActivity.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

// GroupService

type GroupServiceHandler interface {
	ListGroups(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListGroupsResponse], error)
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
}

func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + GroupServiceName + "/", routes(map[string]http.Handler{
		GroupServiceListGroupsProcedure:  connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...),
		GroupServiceCreateGroupProcedure: connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...),
	})
}

type GroupServiceClient interface {
	ListGroups(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListGroupsResponse], error)
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
}

type groupServiceClient struct {
	listGroups  *connect.Client[emptypb.Empty, api.ListGroupsResponse]
	createGroup *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
}

func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &groupServiceClient{
		listGroups:  connect.NewClient[emptypb.Empty, api.ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		createGroup: connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
	}
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

// AccountService

type AccountServiceHandler interface {
	GetProfile(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.GetProfileResponse], error)
}

func NewAccountServiceHandler(svc AccountServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AccountServiceName + "/", routes(map[string]http.Handler{
		AccountServiceGetProfileProcedure: connect.NewUnaryHandler(AccountServiceGetProfileProcedure, svc.GetProfile, opts...),
	})
}

type AccountServiceClient interface {
	GetProfile(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.GetProfileResponse], error)
}

type accountServiceClient struct {
	getProfile *connect.Client[emptypb.Empty, api.GetProfileResponse]
}

func NewAccountServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AccountServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &accountServiceClient{
		getProfile: connect.NewClient[emptypb.Empty, api.GetProfileResponse](httpClient, baseURL+AccountServiceGetProfileProcedure, opts...),
	}
}

func (c *accountServiceClient) GetProfile(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.GetProfileResponse], error) {
	return c.getProfile.CallUnary(ctx, req)
}
