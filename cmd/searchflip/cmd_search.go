package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	searchflip "github.com/olleolleolle/search-flip"
)

type searchFlags struct {
	where        []string
	whereNot     []string
	postWhere    []string
	postWhereNot []string
	query        string
	sort         []string
	limit        int
	offset       int
	aggs         []string
}

func newSearchCmd(a *app) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search <index>",
		Short: "Run a filtered search and print total, hits and aggregations",
		Example: `  searchflip search books --where category=books --where-not price=0 \
    --post-where tags=new-arrivals,sale --agg author --sort price:desc --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, aggOrder, err := f.relation(searchflip.NewIndex[json.RawMessage](a.client, args[0]))
			if err != nil {
				return err
			}
			resp, err := rel.Execute(cmd.Context())
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp, aggOrder)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVar(&f.where, "where", nil, "field=value filter on hits and aggregations (repeatable)")
	fl.StringArrayVar(&f.whereNot, "where-not", nil, "field=value exclusion on hits and aggregations (repeatable)")
	fl.StringArrayVar(&f.postWhere, "post-where", nil, "field=value filter on hits only (repeatable)")
	fl.StringArrayVar(&f.postWhereNot, "post-where-not", nil, "field=value exclusion on hits only (repeatable)")
	fl.StringVarP(&f.query, "query", "q", "", "query string, terms are ANDed")
	fl.StringArrayVar(&f.sort, "sort", nil, "field or field:asc|desc (repeatable)")
	fl.IntVar(&f.limit, "limit", -1, "page size (backend default when unset)")
	fl.IntVar(&f.offset, "offset", 0, "number of hits to skip")
	fl.StringArrayVar(&f.aggs, "agg", nil, "terms aggregation as name=field or field (repeatable)")
	return cmd
}

func (f searchFlags) relation(idx *searchflip.Index[json.RawMessage]) (*searchflip.Relation[json.RawMessage], []string, error) {
	rel := idx.Relation()

	type rawRelation = searchflip.Relation[json.RawMessage]
	filters := []struct {
		flag  string
		pairs []string
		apply func(*rawRelation, searchflip.Fields) *rawRelation
	}{
		{"where", f.where, (*rawRelation).Where},
		{"where-not", f.whereNot, (*rawRelation).WhereNot},
		{"post-where", f.postWhere, (*rawRelation).PostWhere},
		{"post-where-not", f.postWhereNot, (*rawRelation).PostWhereNot},
	}
	for _, fl := range filters {
		fields, err := parseFields(fl.pairs)
		if err != nil {
			return nil, nil, fmt.Errorf("--%s: %w", fl.flag, err)
		}
		if fields != nil {
			rel = fl.apply(rel, fields)
		}
	}

	if f.query != "" {
		rel = rel.Search(f.query)
	}
	if len(f.sort) > 0 {
		specs, err := parseSort(f.sort)
		if err != nil {
			return nil, nil, fmt.Errorf("--sort: %w", err)
		}
		rel = rel.Sort(specs...)
	}
	if f.limit >= 0 {
		rel = rel.Limit(f.limit)
	}
	if f.offset > 0 {
		rel = rel.Offset(f.offset)
	}

	aggs, order, err := parseAggs(f.aggs)
	if err != nil {
		return nil, nil, fmt.Errorf("--agg: %w", err)
	}
	for _, name := range order {
		rel = rel.Aggregate(name, searchflip.TermsAggregation(aggs[name]))
	}
	return rel, order, rel.Err()
}

type hitLine struct {
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score,omitempty"`
	Source json.RawMessage `json:"_source,omitempty"`
}

func printResponse(w io.Writer, resp *searchflip.Response[json.RawMessage], aggOrder []string) error {
	total := resp.Total()
	rel := ""
	if total.Relation == "gte" {
		rel = "+"
	}
	fmt.Fprintf(w, "total: %d%s\n", total.Value, rel)

	enc := json.NewEncoder(w)
	for i := range resp.Len() {
		h, err := resp.Hit(i)
		if err != nil {
			return err
		}
		if err := enc.Encode(hitLine{ID: h.ID, Score: h.Score, Source: h.Source}); err != nil {
			return fmt.Errorf("write hit: %w", err)
		}
	}

	if len(aggOrder) == 0 {
		return nil
	}
	aggs, err := resp.Aggregations()
	if err != nil {
		return err
	}
	for _, name := range aggOrder {
		agg, ok := aggs[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s:\n", name)
		for _, b := range agg.Buckets {
			fmt.Fprintf(w, "  %s\t%d\n", b.KeyString(), b.DocCount)
		}
	}
	return nil
}
