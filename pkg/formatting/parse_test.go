package formatting_test

import (
	"errors"
	"testing"

	"github.com/gradethread/gradethread/pkg/formatting"
)

type analysis struct {
	ImageType string   `json:"image_type"`
	Issues    []string `json:"issues"`
}

func TestParse(t *testing.T) {
	t.Run("direct JSON", func(t *testing.T) {
		got, err := formatting.Parse[analysis](`{"image_type":"front","issues":["fading"]}`)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got.ImageType != "front" || len(got.Issues) != 1 {
			t.Errorf("Parse = %+v, want {ImageType:front Issues:[fading]}", got)
		}
	})

	t.Run("direct JSON with whitespace", func(t *testing.T) {
		got, err := formatting.Parse[analysis](`  {"image_type":"back"}  `)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got.ImageType != "back" {
			t.Errorf("ImageType = %q, want back", got.ImageType)
		}
	})

	t.Run("markdown fenced JSON", func(t *testing.T) {
		input := "```json\n{\"image_type\":\"label\"}\n```"
		got, err := formatting.Parse[analysis](input)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got.ImageType != "label" {
			t.Errorf("ImageType = %q, want label", got.ImageType)
		}
	})

	t.Run("markdown fenced without language tag", func(t *testing.T) {
		input := "```\n{\"image_type\":\"detail\"}\n```"
		got, err := formatting.Parse[analysis](input)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got.ImageType != "detail" {
			t.Errorf("ImageType = %q, want detail", got.ImageType)
		}
	})

	t.Run("markdown fenced with surrounding text", func(t *testing.T) {
		input := "Here is the analysis:\n```json\n{\"image_type\":\"defect\"}\n```\nDone."
		got, err := formatting.Parse[analysis](input)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got.ImageType != "defect" {
			t.Errorf("ImageType = %q, want defect", got.ImageType)
		}
	})

	t.Run("invalid content returns ErrParseFailed", func(t *testing.T) {
		_, err := formatting.Parse[analysis]("the garment looks fine")
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("error = %v, want ErrParseFailed", err)
		}
	})

	t.Run("empty string returns ErrParseFailed", func(t *testing.T) {
		_, err := formatting.Parse[analysis]("")
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("error = %v, want ErrParseFailed", err)
		}
	})

	t.Run("invalid JSON in code fence returns ErrParseFailed", func(t *testing.T) {
		input := "```json\n{broken\n```"
		_, err := formatting.Parse[analysis](input)
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("error = %v, want ErrParseFailed", err)
		}
	})

	t.Run("parses into map type", func(t *testing.T) {
		got, err := formatting.Parse[map[string]any](`{"overall_score":7.5}`)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if got["overall_score"] != 7.5 {
			t.Errorf("got[overall_score] = %v, want 7.5", got["overall_score"])
		}
	})

	t.Run("parses into slice type", func(t *testing.T) {
		got, err := formatting.Parse[[]string](`["stain","pilling"]`)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if len(got) != 2 || got[0] != "stain" {
			t.Errorf("got = %v, want [stain pilling]", got)
		}
	})
}
