package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"github.com/hyperifyio/scholarsearch/internal/tools"
)

// Transports accepted by Serve.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// DefaultPath is where the streamable HTTP transport is mounted.
const DefaultPath = "/mcp"

// Options configures the MCP host.
type Options struct {
	Name      string
	Version   string
	Transport string // stdio (default) or http
	Addr      string // listen address for http
	Path      string // mount path for http; empty means DefaultPath
}

// Binding pairs an MCP tool declaration with the handler that serves it.
type Binding struct {
	Tool    *mcp.Tool
	Handler func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Bindings translates every registered tool into an MCP tool. Argument
// schemas are carried over property by property; validation still happens in
// the registry on each call.
func Bindings(reg *tools.Registry) ([]Binding, error) {
	specs := reg.Specs()
	out := make([]Binding, 0, len(specs))
	for _, spec := range specs {
		opts, err := toolOptions(spec)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", spec.Name, err)
		}
		name := spec.Name
		out = append(out, Binding{
			Tool: mcp.NewTool(name, opts...),
			Handler: func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				text, err := Call(ctx, reg, name, req.Params.Arguments)
				if err != nil {
					log.Warn().Err(err).Str("tool", name).Msg("tool call failed")
					return mcp.NewErrorResult(err.Error()), nil
				}
				return mcp.NewTextResult(text), nil
			},
		})
	}
	return out, nil
}

// Call invokes a registry tool with decoded MCP arguments and returns its
// result as text.
func Call(ctx context.Context, reg *tools.Registry, name string, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encoding arguments: %w", err)
	}
	start := time.Now()
	res, err := reg.Invoke(ctx, name, raw)
	if err != nil {
		return "", err
	}
	log.Debug().Str("tool", name).Dur("elapsed", time.Since(start)).Msg("tool call complete")
	return tools.TextResult(res), nil
}

type schemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type objectSchema struct {
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

func toolOptions(spec tools.ToolSpec) ([]mcp.ToolOption, error) {
	var s objectSchema
	if err := json.Unmarshal(spec.JSONSchema, &s); err != nil {
		return nil, err
	}
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, name := range sortedKeys(s.Properties) {
		p := s.Properties[name]
		var popts []mcp.PropertyOption
		if p.Description != "" {
			popts = append(popts, mcp.Description(p.Description))
		}
		if required[name] {
			popts = append(popts, mcp.Required())
		}
		switch p.Type {
		case "string":
			opts = append(opts, mcp.WithString(name, popts...))
		case "integer", "number":
			opts = append(opts, mcp.WithNumber(name, popts...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(name, popts...))
		default:
			return nil, fmt.Errorf("unsupported property type %q for %s", p.Type, name)
		}
	}
	return opts, nil
}

// Serve hosts the registry's tools until ctx ends or the transport fails.
func Serve(ctx context.Context, reg *tools.Registry, opts Options) error {
	bindings, err := Bindings(reg)
	if err != nil {
		return err
	}
	switch opts.Transport {
	case "", TransportStdio:
		return serveStdio(ctx, bindings, opts)
	case TransportHTTP:
		return serveHTTP(ctx, bindings, opts)
	default:
		return fmt.Errorf("unknown mcp transport %q", opts.Transport)
	}
}

func serveStdio(ctx context.Context, bindings []Binding, opts Options) error {
	server := mcp.NewStdioServer(opts.Name, opts.Version,
		mcp.WithStdioServerLogger(mcp.GetDefaultLogger()),
	)
	for _, b := range bindings {
		server.RegisterTool(b.Tool, b.Handler)
	}
	log.Info().Int("tools", len(bindings)).Msg("serving MCP over stdio")
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Handler builds the streamable HTTP handler for bindings.
func Handler(bindings []Binding, opts Options) http.Handler {
	path := opts.Path
	if path == "" {
		path = DefaultPath
	}
	server := mcp.NewServer(opts.Name, opts.Version,
		mcp.WithServerAddress(opts.Addr),
		mcp.WithServerPath(path),
	)
	for _, b := range bindings {
		server.RegisterTool(b.Tool, b.Handler)
	}
	return server.HTTPHandler()
}

func serveHTTP(ctx context.Context, bindings []Binding, opts Options) error {
	if opts.Addr == "" {
		return errors.New("mcp http transport requires an address")
	}
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           Handler(bindings, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("addr", opts.Addr).Int("tools", len(bindings)).Msg("serving MCP over HTTP")
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
