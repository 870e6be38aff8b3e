// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes blogd's markdown tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/koukeneko/blogd/internal/docservice"
	"github.com/koukeneko/blogd/internal/markdown"
	"github.com/koukeneko/blogd/internal/render"
	"github.com/koukeneko/blogd/internal/transcode"
)

const calloutSyntaxURI = "blogd://callout-syntax"

// Documents is the part of the document service the tools read from.
type Documents interface {
	Get(ctx context.Context, id string, opts docservice.GetOptions) (*docservice.Document, error)
	List(q docservice.ListQuery) docservice.ListResult
}

// Server wraps the MCP server with blogd tools.
type Server struct {
	mcp       *server.MCPServer
	docs      Documents
	renderer  *render.Renderer
	uniqueIDs bool
}

// New creates a new MCP server with all blogd tools registered. docs may be
// nil, in which case the document tools report an error.
func New(docs Documents, uniqueIDs bool) *Server {
	s := &Server{
		docs:      docs,
		renderer:  render.New(render.WithUniqueIDs(uniqueIDs)),
		uniqueIDs: uniqueIDs,
	}

	s.mcp = server.NewMCPServer(
		"blogd",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("transcode_markdown",
		mcp.WithDescription("Rewrite HackMD colon fences and blockquote markers into canonical "+
			"'> [!TYPE] title' call-outs. Returns the content, the call-outs found, the outline "+
			"and the reading time."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown source")),
	), s.transcodeMarkdown)

	s.mcp.AddTool(mcp.NewTool("extract_toc",
		mcp.WithDescription("List the ATX headings of a Markdown document with their anchor ids."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown source")),
		mcp.WithBoolean("unique_ids", mcp.Description("Suffix repeated ids with -2, -3, ...")),
	), s.extractTOC)

	s.mcp.AddTool(mcp.NewTool("classify_callout",
		mcp.WithDescription("Guess the call-out type of a plain blockquote from its wording."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Blockquote text")),
	), s.classifyCallout)

	s.mcp.AddTool(mcp.NewTool("render_html",
		mcp.WithDescription("Transcode Markdown and render it to HTML with call-out classes and heading ids."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown source")),
	), s.renderHTML)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Fetch a blog document by HackMD id, transcoded, with its outline."),
		mcp.WithString("id", mcp.Required(), mcp.Description("HackMD note id, optionally '@user/id'")),
		mcp.WithBoolean("html", mcp.Description("Also render HTML")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List catalogue documents with optional search, tag and featured filters."),
		mcp.WithString("q", mcp.Description("Search title, description and tags")),
		mcp.WithString("tag", mcp.Description("Only documents with this tag")),
		mcp.WithBoolean("featured", mcp.Description("Only featured documents")),
		mcp.WithNumber("page", mcp.Description("Page number, from 1")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_callout_syntax",
		mcp.WithDescription("Returns the call-out notations blogd accepts and the canonical form. "+
			"Call this before writing call-outs."),
	), s.getCalloutSyntax)

	s.mcp.AddResource(
		mcp.NewResource(calloutSyntaxURI, "Call-out Syntax",
			mcp.WithResourceDescription("Accepted call-out notations and the canonical form."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCalloutSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) transcodeMarkdown(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := transcode.Run(content, transcode.Options{UniqueIDs: s.uniqueIDs})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) extractTOC(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toc := markdown.Headings(content)
	if req.GetBool("unique_ids", s.uniqueIDs) {
		toc = markdown.UniqueIDs(toc)
	}
	if toc == nil {
		toc = []markdown.Heading{}
	}
	return jsonResult(toc)
}

func (s *Server) classifyCallout(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t := markdown.Classify(text)
	return jsonResult(map[string]string{"type": string(t), "title": t.Title()})
}

func (s *Server) renderHTML(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	html, err := s.renderer.Render(markdown.Transcode(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(html), nil
}

var errNoDocuments = errors.New("document service is not configured")

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.docs == nil {
		return mcp.NewToolResultError(errNoDocuments.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.docs.Get(ctx, id, docservice.GetOptions{HTML: req.GetBool("html", false)})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

func (s *Server) listDocuments(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.docs == nil {
		return mcp.NewToolResultError(errNoDocuments.Error()), nil
	}
	return jsonResult(s.docs.List(docservice.ListQuery{
		Q:        req.GetString("q", ""),
		Tag:      req.GetString("tag", ""),
		Featured: req.GetBool("featured", false),
		Page:     req.GetInt("page", 1),
	}))
}

func (s *Server) getCalloutSyntax(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CalloutSyntax), nil
}

func (s *Server) readCalloutSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      calloutSyntaxURI,
			MIMEType: "text/markdown",
			Text:     CalloutSyntax,
		},
	}, nil
}
