package db

import "testing"

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("listings-idx").
		Prefix("listing:").
		Tag("category").
		NumericSortable("price").
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "listings-idx" {
		t.Errorf("name = %q, want listings-idx", idx.Name)
	}
	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Name != "category" || idx.Fields[0].Type != IndexFieldTag {
		t.Errorf("field[0] = %+v, want category TAG", idx.Fields[0])
	}
	if idx.Fields[1].Name != "price" || !idx.Fields[1].Sortable {
		t.Errorf("field[1] = %+v, want price NUMERIC SORTABLE", idx.Fields[1])
	}
}

func TestIndexBuilder_TextOpts(t *testing.T) {
	idx := NewIndex("t").
		TextWithOpts("title", true, true).
		MustBuild()

	f := idx.Fields[0]
	if !f.SuffixTrie || !f.NoStem {
		t.Errorf("field = %+v, want suffix trie and nostem", f)
	}
}

func TestIndexDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     IndexDefinition
		wantErr bool
	}{
		{"no name", IndexDefinition{Fields: []IndexField{{Name: "a"}}}, true},
		{"bad identifier", IndexDefinition{Name: "a b", Fields: []IndexField{{Name: "a"}}}, true},
		{"no fields", IndexDefinition{Name: "ok"}, true},
		{"duplicate field", IndexDefinition{Name: "ok", Fields: []IndexField{{Name: "a"}, {Name: "a"}}}, true},
		{"suffix trie on tag", IndexDefinition{Name: "ok", Fields: []IndexField{
			{Name: "a", Type: IndexFieldTag, SuffixTrie: true},
		}}, true},
		{"valid", IndexDefinition{Name: "ok", Fields: []IndexField{
			{Name: "title", Type: IndexFieldText, SuffixTrie: true},
		}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
