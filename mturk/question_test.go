package mturk_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dschultz0/larry/mturk"
	"github.com/dschultz0/larry/s3"
)

func TestHTMLQuestion(t *testing.T) {
	q := mturk.HTMLQuestion("<p>Rate this image</p>", 450)
	if !strings.Contains(q, "<![CDATA[<p>Rate this image</p>]]>") {
		t.Errorf("HTMLQuestion() = %q, want CDATA-wrapped content", q)
	}
	if !strings.Contains(q, "<FrameHeight>450</FrameHeight>") {
		t.Errorf("HTMLQuestion() = %q, want frame height", q)
	}
	if !strings.Contains(q, "HTMLQuestion.xsd") {
		t.Errorf("HTMLQuestion() = %q, want schema namespace", q)
	}
}

func TestExternalQuestion(t *testing.T) {
	q := mturk.ExternalQuestion("https://tasks.example.com/rate", 0)
	if !strings.Contains(q, "<ExternalURL>https://tasks.example.com/rate</ExternalURL>") {
		t.Errorf("ExternalQuestion() = %q", q)
	}
	if !strings.Contains(q, "<FrameHeight>0</FrameHeight>") {
		t.Errorf("ExternalQuestion() = %q, want zero frame height", q)
	}
}

func TestRenderTemplate(t *testing.T) {
	got, err := mturk.RenderTemplate("<img src=\"{{.ImageURL}}\"/>", map[string]string{"ImageURL": "https://img.example.com/1.png"})
	if err != nil {
		t.Fatalf("RenderTemplate() error = %v", err)
	}
	if got != `<img src="https://img.example.com/1.png"/>` {
		t.Errorf("RenderTemplate() = %q", got)
	}

	if _, err := mturk.RenderTemplate("{{.Broken", nil); err == nil {
		t.Error("RenderTemplate() accepted a malformed template")
	}
}

func TestRenderTemplateFrom(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.objects["s3://temp-bucket/templates/q.html"] = []byte("Hello {{.Name}}")

	got, err := mturk.RenderTemplateFrom(ctx, store, s3.At("temp-bucket", "templates/q.html"), map[string]string{"Name": "worker"})
	if err != nil {
		t.Fatalf("RenderTemplateFrom() error = %v", err)
	}
	if got != "Hello worker" {
		t.Errorf("RenderTemplateFrom() = %q", got)
	}
}

func TestRenderHTMLQuestion(t *testing.T) {
	got, err := mturk.RenderHTMLQuestion("<p>{{.Prompt}}</p>", map[string]string{"Prompt": "pick one"}, 0)
	if err != nil {
		t.Fatalf("RenderHTMLQuestion() error = %v", err)
	}
	if !strings.Contains(got, "<![CDATA[<p>pick one</p>]]>") {
		t.Errorf("RenderHTMLQuestion() = %q", got)
	}
}
