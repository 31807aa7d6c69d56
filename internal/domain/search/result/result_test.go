package result

import "testing"

func TestNewPage(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		total      int
		wantPages  int
		wantNext   bool
		wantPrev   bool
	}{
		{"exact multiple", 1, 20, 40, 2, true, false},
		{"remainder rounds up", 1, 20, 45, 3, true, false},
		{"last page", 3, 20, 45, 3, false, true},
		{"single page", 1, 20, 5, 1, false, false},
		{"empty", 1, 20, 0, 0, false, false},
		{"middle page", 2, 10, 100, 10, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.page, tt.size, tt.total)
			if p.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantPages)
			}
			if p.HasNext != tt.wantNext || p.HasPrev != tt.wantPrev {
				t.Errorf("HasNext/HasPrev = %v/%v, want %v/%v",
					p.HasNext, p.HasPrev, tt.wantNext, tt.wantPrev)
			}
			if p.TotalItems != tt.total {
				t.Errorf("TotalItems = %d, want %d", p.TotalItems, tt.total)
			}
		})
	}
}

func TestNewPageInferred(t *testing.T) {
	full := NewPageInferred(2, 20, 20)
	if !full.HasNext || !full.HasPrev {
		t.Errorf("full page 2: HasNext/HasPrev = %v/%v, want true/true", full.HasNext, full.HasPrev)
	}
	short := NewPageInferred(1, 20, 7)
	if short.HasNext || short.HasPrev {
		t.Errorf("short first page: HasNext/HasPrev = %v/%v, want false/false", short.HasNext, short.HasPrev)
	}
}
