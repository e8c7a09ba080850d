package config

import "fmt"

// SequenceNode is one sequence or subsequence of the manifest. Articles and
// Subsequences are mutually exclusive.
type SequenceNode struct {
	Title        string         `json:"title" yaml:"title"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty"`
	Articles     []string       `json:"articles,omitempty" yaml:"articles,omitempty"`
	Subsequences []SequenceNode `json:"subsequences,omitempty" yaml:"subsequences,omitempty"`
}

// HasSubsequences reports whether the node groups subsequences rather than
// listing articles directly.
func (n *SequenceNode) HasSubsequences() bool {
	return n.Subsequences != nil
}

// Walk calls fn for every article URL reachable from the manifest, in
// reading order: sequences top to bottom, subsequences in listed order,
// articles in listed order.
func Walk(manifest []SequenceNode, fn func(node *SequenceNode, url string) error) error {
	for i := range manifest {
		if err := walkNode(&manifest[i], fn); err != nil {
			return err
		}
	}
	return nil
}

func walkNode(node *SequenceNode, fn func(node *SequenceNode, url string) error) error {
	for _, url := range node.Articles {
		if err := fn(node, url); err != nil {
			return err
		}
	}
	for i := range node.Subsequences {
		if err := walkNode(&node.Subsequences[i], fn); err != nil {
			return err
		}
	}
	return nil
}

// validateManifest rejects nodes that list both articles and subsequences,
// subsequences nested below the first level and untitled nodes.
func validateManifest(file string, manifest []SequenceNode) error {
	for i := range manifest {
		if err := validateNode(file, &manifest[i], 0); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(file string, node *SequenceNode, depth int) error {
	if node.Title == "" {
		return &ConfigError{File: file, Msg: "sequence without a title"}
	}
	if node.Articles != nil && node.Subsequences != nil {
		return &ConfigError{
			File: file,
			Msg:  fmt.Sprintf("sequence %q has both articles and subsequences", node.Title),
		}
	}
	if depth > 0 && node.Subsequences != nil {
		return &ConfigError{
			File: file,
			Msg:  fmt.Sprintf("subsequence %q cannot contain subsequences", node.Title),
		}
	}
	for _, url := range node.Articles {
		if url == "" {
			return &ConfigError{
				File: file,
				Msg:  fmt.Sprintf("sequence %q lists an empty article URL", node.Title),
			}
		}
	}
	for i := range node.Subsequences {
		if err := validateNode(file, &node.Subsequences[i], depth+1); err != nil {
			return err
		}
	}
	return nil
}
