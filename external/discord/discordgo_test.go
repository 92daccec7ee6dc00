package discord

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	discordpkg "github.com/Typenine/Discord-Meeting-App-sub000/internal/discord"
	"github.com/bwmarrin/discordgo"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestSession(t *testing.T, rt roundTripFunc) *discordgo.Session {
	t.Helper()
	s, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if rt != nil {
		s.Client = &http.Client{Transport: rt}
	}
	return s
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestSendChannelMessageWithFile_NoTokenIsNoop(t *testing.T) {
	c := NewClient("")
	err := c.SendChannelMessageWithFile(context.Background(), discordpkg.FileMessage{
		ChannelID: "chan-1",
		Filename:  "minutes-s1.txt",
		FileBody:  []byte("hello"),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendChannelMessageWithFile_UploadsAttachment(t *testing.T) {
	var gotPath, gotFilename, gotBody string
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		reader, err := req.MultipartReader()
		if err != nil {
			t.Errorf("failed to create multipart reader: %v", err)
			return jsonResponse(http.StatusBadRequest, `{}`), nil
		}
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			if part.FileName() == "" {
				continue
			}
			gotFilename = part.FileName()
			b, _ := io.ReadAll(part)
			gotBody = string(b)
		}
		return jsonResponse(http.StatusOK, `{"id":"msg-1","channel_id":"chan-1"}`), nil
	})

	c := &Client{token: "test-token", session: s}
	err := c.SendChannelMessageWithFile(context.Background(), discordpkg.FileMessage{
		ChannelID: "chan-1",
		Content:   "Meeting minutes",
		Filename:  "minutes-s1.txt",
		FileBody:  []byte("Agenda"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(gotPath, "/channels/chan-1/messages") {
		t.Fatalf("unexpected request path: %s", gotPath)
	}
	if gotFilename != "minutes-s1.txt" {
		t.Fatalf("unexpected filename: %q", gotFilename)
	}
	if gotBody != "Agenda" {
		t.Fatalf("unexpected body: %q", gotBody)
	}
}

func TestIsRESTStatus(t *testing.T) {
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"message":"Unknown Channel","code":10003}`), nil
	})
	_, err := s.Channel("missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !isRESTStatus(err, http.StatusNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if isRESTUnauthorized(err) {
		t.Fatal("not found must not be reported as unauthorized")
	}
}
