package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/marketdz/searchd/internal/db"
	"github.com/marketdz/searchd/internal/domain/search/filter"
)

// SearchText runs a filtered text search via FT.SEARCH.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	args, err := buildSearchArgs(q)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseSearchResult(raw, q.WithScores)
}

// buildSearchArgs assembles the FT.SEARCH argument list for a text query.
func buildSearchArgs(q *db.TextQuery) ([]string, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if q.Mode != db.MatchNone && strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("query text is required for text match modes")
	}

	queryStr := buildQueryString(q)

	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	if q.WithScores {
		args = append(args, "WITHSCORES")
	}

	if q.SortBy != nil {
		dir := "ASC"
		if q.SortBy.Desc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy.Field, dir)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	return args, nil
}

// buildQueryString combines the structured filters with the text predicate.
func buildQueryString(q *db.TextQuery) string {
	filterStr := buildFilter(q.Filters)
	textPart := buildTextPredicate(q.Text, q.Mode, q.TextFields)

	switch {
	case filterStr != "" && textPart != "":
		return filterStr + " " + textPart
	case filterStr != "":
		return filterStr
	case textPart != "":
		return textPart
	default:
		return "*"
	}
}

// defaultTextFields are the TEXT fields predicates run against when the
// query does not name any.
var defaultTextFields = []string{"title", "description"}

func buildTextPredicate(text string, mode db.MatchMode, fields []string) string {
	if mode == db.MatchNone {
		return ""
	}
	if len(fields) == 0 {
		fields = defaultTextFields
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return ""
	}

	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		switch mode {
		case db.MatchSubstring:
			// DIALECT 2 infix wildcard; requires WITHSUFFIXTRIE on the field.
			parts = append(parts, fmt.Sprintf("w'*%s*'", escapeWildcardToken(tok)))
		case db.MatchFuzzy:
			parts = append(parts, "%"+escapeQuery(tok)+"%")
		case db.MatchText:
			parts = append(parts, escapeQuery(tok))
		}
	}

	return fmt.Sprintf("@%s:(%s)", strings.Join(fields, "|"), strings.Join(parts, " "))
}

// buildFilter renders a conjunctive filter expression into FT.SEARCH syntax.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, len(expr.Conditions()))
	for _, cond := range expr.Conditions() {
		if p := buildCondition(cond); p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, " ")
}

func buildCondition(cond filter.Condition) string {
	if cond.IsMatch() {
		return buildTagFilter(cond.Key(), cond.Match())
	}
	if cond.IsRange() {
		return buildNumericFilter(cond.Key(), *cond.Range())
	}
	return ""
}

func buildTagFilter(key, value string) string {
	escaped := tagEscaper.Replace(value)
	return fmt.Sprintf("@%s:{%s}", key, escaped)
}

func buildNumericFilter(key string, r filter.Range) string {
	lo := "-inf"
	hi := "+inf"
	if r.Min() != nil {
		lo = strconv.FormatFloat(*r.Min(), 'f', -1, 64)
	}
	if r.Max() != nil {
		hi = strconv.FormatFloat(*r.Max(), 'f', -1, 64)
	}
	return fmt.Sprintf("@%s:[%s %s]", key, lo, hi)
}

// parseSearchResult parses an FT.SEARCH RESP2 reply.
// Without WITHSCORES the stride is [key, fields]; with it, [key, score, fields].
func parseSearchResult(raw []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{Total: 0}, nil
	}

	stride := 2
	if withScores {
		stride = 3
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/stride)
	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key}

		fieldsIdx := i + 1
		if withScores {
			scoreStr, err := raw[i+1].ToString()
			if err != nil {
				continue
			}
			score, err := strconv.ParseFloat(scoreStr, 64)
			if err != nil {
				continue
			}
			entry.Score = score
			fieldsIdx = i + 2
		}

		fields, err := raw[fieldsIdx].ToArray()
		if err != nil {
			continue
		}
		entry.Fields = parseFieldPairs(fields)

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		k, err := fields[i].ToString()
		if err != nil {
			continue
		}
		v, err := fields[i+1].ToString()
		if err != nil {
			continue
		}
		m[k] = v
	}
	return m
}

var tagEscaper = strings.NewReplacer(
	` `, `\ `,
	`,`, `\,`,
	`.`, `\.`,
	`<`, `\<`,
	`>`, `\>`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`"`, `\"`,
	`'`, `\'`,
	`:`, `\:`,
	`;`, `\;`,
	`!`, `\!`,
	`@`, `\@`,
	`#`, `\#`,
	`$`, `\$`,
	`%`, `\%`,
	`^`, `\^`,
	`&`, `\&`,
	`*`, `\*`,
	`(`, `\(`,
	`)`, `\)`,
	`-`, `\-`,
	`+`, `\+`,
	`=`, `\=`,
	`~`, `\~`,
	`|`, `\|`,
)

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

// escapeWildcardToken strips characters that would terminate or corrupt a
// w'...' wildcard literal.
func escapeWildcardToken(s string) string {
	return strings.NewReplacer(`'`, ``, `\`, ``, `*`, ``, `?`, ``).Replace(s)
}
