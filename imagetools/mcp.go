package imagetools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

const (
	ServerName    = "unsplash-server"
	ServerVersion = "0.1.0"

	notePrefix   = "note:///"
	notesPrompt  = "summarize_notes"
	textMIMEType = "text/plain"
)

// NewMCPServer exposes the tools, the notes as resources and a summarize prompt over MCP
func NewMCPServer(d *Dispatcher) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool(ToolCreateNote,
		mcp.WithDescription("Create a new note"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the note")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text content of the note")),
	), toolHandler(d, ToolCreateNote))

	s.AddTool(mcp.NewTool(ToolFetchImage,
		mcp.WithDescription("Fetch images from Unsplash"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query for images")),
		mcp.WithNumber("count", mcp.Required(), mcp.Description("Number of images to fetch"),
			mcp.Min(MinImageCount), mcp.Max(MaxImageCount)),
	), toolHandler(d, ToolFetchImage))

	for _, note := range d.Notes().List() {
		addNoteResource(s, d.Notes(), note)
	}
	d.OnNoteCreated(func(note Note) {
		addNoteResource(s, d.Notes(), note)
	})

	s.AddPrompt(mcp.NewPrompt(notesPrompt,
		mcp.WithPromptDescription("Summarize all notes"),
	), func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return summarizePrompt(d.Notes()), nil
	})

	return s
}

// toolHandler adapts the dispatcher to an MCP tool. Tool failures are reported as tool errors
// so the client sees the message.
func toolHandler(d *Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := d.Call(ctx, name, req.GetArguments())
		if err != nil {
			log.Debug().Err(err).Str("tool", name).Msg("mcp tool call failed")
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func addNoteResource(s *server.MCPServer, notes *NoteStore, note Note) {
	uri := notePrefix + note.ID
	s.AddResource(mcp.NewResource(uri, note.Title,
		mcp.WithResourceDescription("A text note: "+note.Title),
		mcp.WithMIMEType(textMIMEType),
	), func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id, err := NoteIDFromURI(req.Params.URI)
		if err != nil {
			return nil, err
		}
		n, err := notes.Get(id)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: textMIMEType,
				Text:     n.Content,
			},
		}, nil
	})
}

// NoteIDFromURI extracts the id of a note:///<id> resource
func NoteIDFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid resource uri %q: %w", uri, err)
	}
	if u.Scheme != "note" {
		return "", fmt.Errorf("unsupported resource scheme %q", u.Scheme)
	}
	return strings.TrimPrefix(u.Path, "/"), nil
}

func summarizePrompt(notes *NoteStore) *mcp.GetPromptResult {
	var b strings.Builder
	b.WriteString("Please summarize the following notes:\n")
	for _, n := range notes.List() {
		fmt.Fprintf(&b, "\n%s%s: %s\n%s\n", notePrefix, n.ID, n.Title, n.Content)
	}
	b.WriteString("\nProvide a concise summary of all the notes above.")

	return mcp.NewGetPromptResult("Summarize all notes", []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(b.String())),
	})
}

// ServeStdio runs the MCP server on stdin/stdout until the client disconnects
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// NewSSEServer wraps the MCP server for mounting inside the web server
func NewSSEServer(s *server.MCPServer, baseURL, ssePath, messagePath string) *server.SSEServer {
	return server.NewSSEServer(s,
		server.WithBaseURL(strings.TrimSuffix(baseURL, "/")),
		server.WithSSEEndpoint(ssePath),
		server.WithMessageEndpoint(messagePath),
	)
}
