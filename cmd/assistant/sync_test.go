package main

import (
	"testing"

	"github.com/devitsoftware/docs-assistant/tenant"
)

func TestDocSiteURL(t *testing.T) {
	base := "https://docs.example.com"
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "docs prefix and extension are stripped",
			path:     "docs/selecty/getting-started.mdx",
			expected: "https://docs.example.com/selecty/getting-started",
		},
		{
			name:     "index pages resolve to the section root",
			path:     "docs/resell/index.mdx",
			expected: "https://docs.example.com/resell",
		},
		{
			name:     "markdown extension is stripped",
			path:     "docs/general/contact.md",
			expected: "https://docs.example.com/general/contact",
		},
		{
			name:     "nested pages keep their path",
			path:     "docs/lably/labels/conditions.mdx",
			expected: "https://docs.example.com/lably/labels/conditions",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if actual := docSiteURL(tt.path, base); actual != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, actual)
			}
		})
	}
	t.Run("trailing slash on the base is ignored", func(t *testing.T) {
		actual := docSiteURL("docs/selecty/faq.mdx", "https://docs.example.com/")
		if actual != "https://docs.example.com/selecty/faq" {
			t.Errorf("unexpected URL %q", actual)
		}
	})
}

func TestTenantFromPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected tenant.Key
	}{
		{name: "known tenant", path: "docs/selecty/getting-started.mdx", expected: tenant.KeySelecty},
		{name: "aliased tenant", path: "docs/email/setup.mdx", expected: tenant.KeyDiscordBots},
		{name: "unknown tenant is unscoped", path: "docs/internal/notes.mdx", expected: tenant.KeyNone},
		{name: "no docs prefix is unscoped", path: "README.md", expected: tenant.KeyNone},
		{name: "top level doc is unscoped", path: "docs/changelog.mdx", expected: tenant.KeyNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if actual := tenantFromPath(tt.path); actual != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, actual)
			}
		})
	}
}

func TestDocTitle(t *testing.T) {
	if actual := docTitle("docs/selecty/getting-started.mdx"); actual != "getting-started" {
		t.Errorf("expected getting-started, got %q", actual)
	}
	if actual := docTitle("docs/general/contact.md"); actual != "contact" {
		t.Errorf("expected contact, got %q", actual)
	}
}
