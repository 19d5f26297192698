package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// router collects the unary procedures of one service.
type router struct {
	mux  *http.ServeMux
	opts []connect.HandlerOption
}

func newRouter(opts []connect.HandlerOption) *router {
	return &router{
		mux:  http.NewServeMux(),
		opts: append([]connect.HandlerOption{WithJSON()}, opts...),
	}
}

// handle registers fn under procedure. fn sees only the request message.
func handle[Req, Res any](r *router, procedure string, fn func(context.Context, *Req) (*Res, error)) {
	r.mux.Handle(procedure, connect.NewUnaryHandler(
		procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, err
			}
			return connect.NewResponse(res), nil
		},
		r.opts...,
	))
}

// servicePath is the path prefix a service is mounted under.
func servicePath(name string) string {
	return "/" + strings.TrimPrefix(name, "/") + "/"
}
