package content

import "github.com/goliatone/go-portal/internal/storage"

// Tables lists the portal schema in creation order: categories precede
// articles, every parent precedes its translations.
func Tables() []storage.Table {
	return []storage.Table{
		parentTable((*Category)(nil), "categories"),
		translationTable((*CategoryTranslation)(nil), "category_translations", "categories", "category_id"),
		{
			Model:       (*Article)(nil),
			ForeignKeys: []string{`("category_id") REFERENCES "categories" ("id") ON DELETE RESTRICT`},
			Indexes: []storage.Index{
				{Name: "articles_slug_key", Columns: []string{"slug"}, Unique: true},
				{Name: "articles_category_id_idx", Columns: []string{"category_id"}},
			},
		},
		translationTable((*ArticleTranslation)(nil), "article_translations", "articles", "article_id"),
		parentTable((*Publication)(nil), "publications"),
		translationTable((*PublicationTranslation)(nil), "publication_translations", "publications", "publication_id"),
		parentTable((*Member)(nil), "members"),
		translationTable((*MemberTranslation)(nil), "member_translations", "members", "member_id"),
	}
}

func parentTable(model any, table string) storage.Table {
	return storage.Table{
		Model:   model,
		Indexes: []storage.Index{{Name: table + "_slug_key", Columns: []string{"slug"}, Unique: true}},
	}
}

func translationTable(model any, table, parent, column string) storage.Table {
	return storage.Table{
		Model:       model,
		ForeignKeys: []string{`("` + column + `") REFERENCES "` + parent + `" ("id") ON DELETE CASCADE`},
		Indexes: []storage.Index{
			{Name: table + "_language_key", Columns: []string{column, "language"}, Unique: true},
		},
	}
}
