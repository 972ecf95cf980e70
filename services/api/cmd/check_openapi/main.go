package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"booktracker/services/api/internal/server"
)

const defaultDocPath = "services/api/openapi.yaml"

type openAPIDoc struct {
	Paths      map[string]map[string]yaml.Node `yaml:"paths"`
	Components struct {
		Schemas map[string]schema `yaml:"schemas"`
	} `yaml:"components"`
}

type schema struct {
	Type       string            `yaml:"type"`
	Ref        string            `yaml:"$ref"`
	Properties map[string]schema `yaml:"properties"`
	Required   []string          `yaml:"required"`
	Items      *schema           `yaml:"items"`
}

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

func main() {
	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [openapi.yaml]\n", os.Args[0])
		os.Exit(2)
	}
	path := defaultDocPath
	if len(os.Args) == 2 {
		path = os.Args[1]
	}

	doc, err := loadDoc(path)
	if err != nil {
		exitErr(err)
	}
	routes, err := server.New(server.Config{}).Routes()
	if err != nil {
		exitErr(fmt.Errorf("walk routes: %w", err))
	}
	if err := check(doc, routes); err != nil {
		exitErr(err)
	}
	fmt.Println("OpenAPI consistency check passed.")
}

func check(doc openAPIDoc, routes []server.Route) error {
	errResp, err := getSchema(doc, "ErrorResponse")
	if err != nil {
		return err
	}
	if err := validateErrorResponse(errResp); err != nil {
		return err
	}
	list, err := getSchema(doc, "FieldErrors")
	if err != nil {
		return err
	}
	if list.Type != "array" || list.Items == nil || strings.TrimSpace(list.Items.Ref) != "#/components/schemas/FieldError" {
		return errors.New("FieldErrors must be an array of FieldError")
	}
	fieldErr, err := getSchema(doc, "FieldError")
	if err != nil {
		return err
	}
	if err := validateFieldError(fieldErr); err != nil {
		return err
	}
	return compareRoutes(documentedOperations(doc), routes)
}

func loadDoc(path string) (openAPIDoc, error) {
	var doc openAPIDoc
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func getSchema(doc openAPIDoc, name string) (schema, error) {
	if doc.Components.Schemas == nil {
		return schema{}, errors.New("components.schemas missing")
	}
	s, ok := doc.Components.Schemas[name]
	if !ok {
		return schema{}, fmt.Errorf("schema %q missing", name)
	}
	return s, nil
}

func validateErrorResponse(s schema) error {
	if s.Type != "object" {
		return errors.New("ErrorResponse must be object")
	}
	required := makeSet(s.Required)
	for _, field := range []string{"error", "code"} {
		if !required[field] {
			return fmt.Errorf("ErrorResponse.required must include %q", field)
		}
		if prop, ok := s.Properties[field]; !ok || prop.Type != "string" {
			return fmt.Errorf("ErrorResponse.%s must be string", field)
		}
	}
	if prop, ok := s.Properties["requestId"]; !ok || prop.Type != "string" {
		return errors.New("ErrorResponse.requestId must be string")
	}
	return nil
}

func validateFieldError(s schema) error {
	if s.Type != "object" {
		return errors.New("FieldError must be object")
	}
	required := makeSet(s.Required)
	for _, field := range []string{"field", "message"} {
		if !required[field] {
			return fmt.Errorf("FieldError.required must include %q", field)
		}
		if prop, ok := s.Properties[field]; !ok || prop.Type != "string" {
			return fmt.Errorf("FieldError.%s must be string", field)
		}
	}
	return nil
}

// documentedOperations returns "METHOD path" keys for every operation
// under paths, skipping path-level keys such as parameters.
func documentedOperations(doc openAPIDoc) map[string]bool {
	out := make(map[string]bool)
	for path, item := range doc.Paths {
		for method := range item {
			if httpMethods[strings.ToLower(method)] {
				out[strings.ToUpper(method)+" "+path] = true
			}
		}
	}
	return out
}

func compareRoutes(documented map[string]bool, routes []server.Route) error {
	registered := make(map[string]bool, len(routes))
	for _, r := range routes {
		registered[r.Method+" "+r.Path] = true
	}
	for _, key := range sortedKeys(registered) {
		if !documented[key] {
			return fmt.Errorf("route %s is not documented", key)
		}
	}
	for _, key := range sortedKeys(documented) {
		if !registered[key] {
			return fmt.Errorf("documented operation %s has no route", key)
		}
	}
	return nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func makeSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out[item] = true
	}
	return out
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
