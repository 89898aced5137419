// Package mcptools exposes the judge service as Model Context Protocol tools.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judge"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the judge and get_result tools.
func NewServer(svc *judge.Service) *mcp.Server {
	js := NewJudgeService(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "aibu",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "judge",
		Description: "Judge whether the user is being unreasonable. Returns three persona verdicts (Therapist, Analyst, Coach), a paraphrase and a summary, citing reference material only where it was supplied.",
	}, js.Judge)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_result",
		Description: "Fetch a previously returned judgment by its ID.",
	}, js.GetResult)

	return server
}

// RunStdio runs the MCP server on stdio, blocking until stdin is closed or
// ctx is cancelled.
func RunStdio(ctx context.Context, svc *judge.Service) error {
	return NewServer(svc).Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP tools over streamable HTTP on addr until ctx ends.
func RunHTTP(ctx context.Context, svc *judge.Service, addr string) error {
	server := NewServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.WithoutCancel(ctx))
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mcptools: serve http: %w", err)
	}
	return nil
}
