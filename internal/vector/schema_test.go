package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

type MockSchemaClient struct {
	CreatedClass    *models.Class
	ExistingClass   *models.Class
	AddedProperties []*models.Property
	ExistsErr       error
}

func (m *MockSchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	if m.ExistingClass != nil {
		return true, nil
	}
	return false, nil
}

func (m *MockSchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	m.CreatedClass = class
	return nil
}

func (m *MockSchemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return m.ExistingClass, nil
}

func (m *MockSchemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	m.AddedProperties = append(m.AddedProperties, property)
	return nil
}

func TestEnsureSchema_CreatesClass(t *testing.T) {
	client := &MockSchemaClient{}
	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	if client.CreatedClass == nil {
		t.Fatal("Class not created")
	}
	if client.CreatedClass.Class != ClassName {
		t.Errorf("Wrong class name: %s", client.CreatedClass.Class)
	}
	if client.CreatedClass.Vectorizer != "none" {
		t.Errorf("Vectorizer should be 'none', got %q", client.CreatedClass.Vectorizer)
	}

	expectedProps := map[string]string{
		"text":       "text",
		"chunkId":    "string",
		"articleId":  "string",
		"chunkIndex": "int",
		"title":      "text",
		"url":        "string",
		"lang":       "string",
	}

	if len(client.CreatedClass.Properties) != len(expectedProps) {
		t.Errorf("Expected %d properties, got %d", len(expectedProps), len(client.CreatedClass.Properties))
	}
	for _, prop := range client.CreatedClass.Properties {
		expectedType, ok := expectedProps[prop.Name]
		if !ok {
			t.Errorf("Unexpected property %s", prop.Name)
			continue
		}
		if len(prop.DataType) == 0 || prop.DataType[0] != expectedType {
			t.Errorf("Property %s has wrong DataType: %v (expected %s)", prop.Name, prop.DataType, expectedType)
		}
	}
}

func TestEnsureSchema_AddsMissingProperties(t *testing.T) {
	// Simulate an index created before the metadata fields existed
	existingClass := &models.Class{
		Class: ClassName,
		Properties: []*models.Property{
			{Name: "text", DataType: []string{"text"}},
			{Name: "chunkId", DataType: []string{"string"}},
			{Name: "articleId", DataType: []string{"string"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
		},
	}

	client := &MockSchemaClient{
		ExistingClass: existingClass,
	}

	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	if client.CreatedClass != nil {
		t.Fatal("Should not recreate class if it exists")
	}

	addedNames := make(map[string]bool)
	for _, p := range client.AddedProperties {
		addedNames[p.Name] = true
	}

	for _, name := range []string{"title", "url", "lang"} {
		if !addedNames[name] {
			t.Errorf("Missing %q property", name)
		}
	}
	if addedNames["text"] {
		t.Error("Should not re-add existing 'text' property")
	}
}

func TestEnsureSchema_NoOpWhenComplete(t *testing.T) {
	client := &MockSchemaClient{}
	if err := EnsureSchema(context.Background(), client); err != nil {
		t.Fatal(err)
	}

	// Feed the freshly created class back in; nothing should be added.
	client2 := &MockSchemaClient{ExistingClass: client.CreatedClass}
	if err := EnsureSchema(context.Background(), client2); err != nil {
		t.Fatal(err)
	}
	if len(client2.AddedProperties) != 0 {
		t.Errorf("Expected no added properties, got %d", len(client2.AddedProperties))
	}
}

func TestEnsureSchema_PropagatesError(t *testing.T) {
	wantErr := errors.New("weaviate unreachable")
	client := &MockSchemaClient{ExistsErr: wantErr}

	err := EnsureSchema(context.Background(), client)
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected error %v, got %v", wantErr, err)
	}
}
