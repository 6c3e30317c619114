package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/goliatone/go-portal"
	"github.com/goliatone/go-portal/internal/fixtures"
)

func main() {
	fixturePath := flag.String("fixture", "", "path to a fixture JSON file (defaults to the bundled demo content)")
	locale := flag.String("locale", "", "locale used to render content")
	term := flag.String("search", "", "optional search term")
	flag.Parse()

	ctx := context.Background()

	cfg, err := portal.FromEnv(portal.DefaultConfig())
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	module, err := portal.New(cfg)
	if err != nil {
		log.Fatalf("portal: %v", err)
	}
	defer module.Close()

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("fixture: %v", err)
	}
	report, err := module.Seed(ctx, fixture)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("seeded %v (skipped %v)\n", report.Created, report.Skipped)

	if err := printListings(ctx, module, *locale); err != nil {
		log.Fatalf("listings: %v", err)
	}

	if strings.TrimSpace(*term) != "" {
		if err := printSearch(ctx, module, *locale, *term); err != nil {
			log.Fatalf("search: %v", err)
		}
	}
}

func loadFixture(path string) (portal.Fixture, error) {
	if strings.TrimSpace(path) == "" {
		return portal.DefaultFixture()
	}
	return fixtures.LoadFile(path)
}

func printListings(ctx context.Context, module *portal.Module, locale string) error {
	articles, total, err := module.ArticleReader().List(ctx, locale, portal.ListOptions{})
	if err != nil {
		return err
	}
	fmt.Printf("\narticles (%d)\n", total)
	for _, item := range articles {
		fmt.Printf("  %-24s %-4s %s%s\n", item.Record.Slug, item.Locale, item.Translation.Title, fallbackMark(item.Fallback))
	}

	publications, total, err := module.PublicationReader().List(ctx, locale, portal.ListOptions{})
	if err != nil {
		return err
	}
	fmt.Printf("\npublications (%d)\n", total)
	for _, item := range publications {
		fmt.Printf("  %-24s %-4s %d %s%s\n", item.Record.Slug, item.Locale, item.Record.Year, item.Translation.Title, fallbackMark(item.Fallback))
	}

	members, total, err := module.MemberReader().List(ctx, locale, portal.ListOptions{})
	if err != nil {
		return err
	}
	fmt.Printf("\nmembers (%d)\n", total)
	for _, item := range members {
		fmt.Printf("  %-24s %-4s %s, %s%s\n", item.Record.Slug, item.Locale, item.Translation.Name, item.Translation.Role, fallbackMark(item.Fallback))
	}
	return nil
}

func printSearch(ctx context.Context, module *portal.Module, locale, term string) error {
	results, err := module.Search().Search(ctx, locale, term)
	if err != nil {
		return err
	}
	fmt.Printf("\nsearch %q in %s: %d hits\n", results.Term, results.Locale, results.Total())
	for _, hit := range results.Articles {
		fmt.Printf("  article     %s\n", hit.Translation.Title)
	}
	for _, hit := range results.Publications {
		fmt.Printf("  publication %s\n", hit.Translation.Title)
	}
	for _, hit := range results.Members {
		fmt.Printf("  member      %s\n", hit.Translation.Name)
	}
	if results.Empty() {
		fmt.Fprintln(os.Stderr, "  no matches")
	}
	return nil
}

func fallbackMark(fallback bool) string {
	if fallback {
		return " (fallback)"
	}
	return ""
}
