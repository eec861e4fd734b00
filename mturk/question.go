package mturk

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/dschultz0/larry/s3"
)

const htmlQuestionFormat = `<HTMLQuestion xmlns="http://mechanicalturk.amazonaws.com/AWSMechanicalTurkDataSchemas/2011-11-11/HTMLQuestion.xsd">
  <HTMLContent><![CDATA[%s]]></HTMLContent>
  <FrameHeight>%d</FrameHeight>
</HTMLQuestion>`

const externalQuestionFormat = `<ExternalQuestion xmlns="http://mechanicalturk.amazonaws.com/AWSMechanicalTurkDataSchemas/2006-07-14/ExternalQuestion.xsd">
  <ExternalURL>%s</ExternalURL>
  <FrameHeight>%d</FrameHeight>
</ExternalQuestion>`

// HTMLQuestion wraps task HTML in the HTMLQuestion XML document CreateHIT
// accepts. A zero frameHeight lets the task use the whole worker viewport.
func HTMLQuestion(html string, frameHeight int) string {
	return fmt.Sprintf(htmlQuestionFormat, html, frameHeight)
}

// ExternalQuestion wraps a task URL in the ExternalQuestion XML document
// CreateHIT accepts.
func ExternalQuestion(url string, frameHeight int) string {
	return fmt.Sprintf(externalQuestionFormat, url, frameHeight)
}

// RenderTemplate executes a task template against data, typically to
// substitute per-task values into shared question HTML.
func RenderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("question").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("larry: parse question template: %w", err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("larry: render question template: %w", err)
	}
	return sb.String(), nil
}

// RenderTemplateFrom loads a task template from an S3 object and renders it
// against data.
func RenderTemplateFrom(ctx context.Context, store ObjectStore, loc s3.Location, data any) (string, error) {
	tmpl, err := store.ReadString(ctx, loc)
	if err != nil {
		return "", err
	}
	return RenderTemplate(tmpl, data)
}

// RenderHTMLQuestion renders a template against data and wraps the result
// as an HTMLQuestion document.
func RenderHTMLQuestion(tmpl string, data any, frameHeight int) (string, error) {
	html, err := RenderTemplate(tmpl, data)
	if err != nil {
		return "", err
	}
	return HTMLQuestion(html, frameHeight), nil
}
