package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// EnsureSchema creates the collection's class definition if it does not
// exist yet. Safe to call on every startup.
func (ws *WeaviateStore) EnsureSchema(ctx context.Context) error {
	class := classDefinition(ws.collection)
	err := ws.client.Schema().ClassCreator().WithClass(class).Do(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			ws.logger.Debug("class already exists", "class", class.Class)
			return nil
		}
		return types.NewPipelineError(types.ErrKindTransientConnection, "vectorstore.EnsureSchema",
			fmt.Errorf("creating class %s: %w", class.Class, err))
	}
	ws.logger.Info("created weaviate class", "class", class.Class)
	return nil
}

func classDefinition(collection Collection) *models.Class {
	properties := make([]*models.Property, 0, len(collection.Properties))
	for _, name := range collection.Properties {
		properties = append(properties, &models.Property{
			Name:     name,
			DataType: []string{dataTypeFor(name)},
		})
	}
	return &models.Class{
		Class:      collection.ClassName,
		Vectorizer: "none",
		Properties: properties,
	}
}

func dataTypeFor(property string) string {
	switch property {
	case "page", "pageNumber", "totalPages":
		return "int"
	default:
		return "text"
	}
}
