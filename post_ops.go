package markblog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type FrontmatterFormat string

const (
	FrontmatterTOML FrontmatterFormat = "toml"
	FrontmatterYAML FrontmatterFormat = "yaml"
)

// PostMeta is the frontmatter written for a new post.
type PostMeta struct {
	Title         string   `yaml:"title" toml:"title"`
	Date          string   `yaml:"date,omitempty" toml:"date,omitempty"`
	Author        string   `yaml:"author,omitempty" toml:"author,omitempty"`
	Excerpt       string   `yaml:"excerpt,omitempty" toml:"excerpt,omitempty"`
	FeaturedImage string   `yaml:"featuredImage,omitempty" toml:"featuredImage,omitempty"`
	Tags          []string `yaml:"tags,omitempty" toml:"tags,omitempty"`
}

// NewPostFile describes a post file to create in a content directory.
type NewPostFile struct {
	Dir       string            // Dir is the content directory. It is created if missing.
	Extension string            // Extension is the post file extension. Default is ".md".
	Slug      string            // Slug is the file stem. Default is the slugified title.
	Meta      PostMeta          // Meta is written as frontmatter.
	Body      string            // Body is the markdown content after the frontmatter.
	Format    FrontmatterFormat // Format is the frontmatter format. Default is YAML.
}

// CreatePostFile writes a new post file and returns its path. If the file already exists,
// ErrPostExists is returned and the existing file is left untouched.
func CreatePostFile(nf NewPostFile) (string, error) {
	if strings.TrimSpace(nf.Meta.Title) == "" {
		return "", ErrMissingTitle
	}

	if nf.Extension == "" {
		nf.Extension = ".md"
	}

	if nf.Format == "" {
		nf.Format = FrontmatterYAML
	}

	if nf.Slug == "" {
		nf.Slug = SlugifyTitle(nf.Meta.Title)
	}

	if !IsValidSlug(nf.Slug) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, nf.Slug)
	}

	frontmatter, err := generateFrontmatter(&nf.Meta, nf.Format)
	if err != nil {
		return "", fmt.Errorf("failed to generate frontmatter: %w", err)
	}

	// Combine frontmatter and content
	var fileContent string
	switch nf.Format {
	case FrontmatterYAML:
		fileContent = fmt.Sprintf("---\n%s---\n\n%s", frontmatter, nf.Body)
	case FrontmatterTOML:
		fileContent = fmt.Sprintf("+++\n%s+++\n\n%s", frontmatter, nf.Body)
	}

	if err := os.MkdirAll(nf.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filePath := filepath.Join(nf.Dir, nf.Slug+nf.Extension)
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return filePath, ErrPostExists
		}
		return filePath, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(fileContent); err != nil {
		return filePath, fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

func generateFrontmatter(meta *PostMeta, format FrontmatterFormat) (string, error) {
	var frontmatter strings.Builder

	switch format {
	case FrontmatterYAML:
		yamlData, err := yaml.Marshal(meta)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML frontmatter: %w", err)
		}
		frontmatter.Write(yamlData)

	case FrontmatterTOML:
		encoder := toml.NewEncoder(&frontmatter)
		if err := encoder.Encode(meta); err != nil {
			return "", fmt.Errorf("failed to marshal TOML frontmatter: %w", err)
		}

	default:
		return "", fmt.Errorf("unsupported frontmatter format: %s", format)
	}

	return frontmatter.String(), nil
}
