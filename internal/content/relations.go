package content

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RestrictCategoryDelete vetoes deleting a category that articles still
// reference.
func RestrictCategoryDelete(articles Repository[*Article, *ArticleTranslation]) DeleteGuard {
	return func(ctx context.Context, id uuid.UUID) error {
		count, err := articles.Count(ctx, Filter{Column: "category_id", Value: id})
		if err != nil {
			return fmt.Errorf("category: count referencing articles: %w", err)
		}
		if count > 0 {
			return Conflict("category", fmt.Sprintf("%d article(s) still reference category %s", count, id))
		}
		return nil
	}
}

// ArticleCategoryCheck rejects articles pointing at a category that does not
// exist.
func ArticleCategoryCheck(categories Repository[*Category, *CategoryTranslation]) func(context.Context, *Article) error {
	return func(ctx context.Context, article *Article) error {
		if article.CategoryID == nil {
			return nil
		}
		_, err := categories.GetByID(ctx, *article.CategoryID)
		switch {
		case err == nil:
			return nil
		case IsNotFound(err):
			return Invalid("article", "unknown category", goerrors.FieldError{
				Field:   "category_id",
				Message: "does not reference an existing category",
				Value:   article.CategoryID.String(),
			})
		default:
			return fmt.Errorf("article: category lookup: %w", err)
		}
	}
}
