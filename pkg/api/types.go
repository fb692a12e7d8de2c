package api

// Building is a single catalog entry. Rows are read-only from the point of
// view of this service; writes happen through a separate ingestion pipeline.
type Building struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	TitleEn         string   `json:"titleEn"`
	BuildingTypes   string   `json:"buildingTypes"`
	BuildingTypesEn string   `json:"buildingTypesEn"`
	Prefectures     string   `json:"prefectures"`
	PrefecturesEn   string   `json:"prefecturesEn"`
	Areas           string   `json:"areas"`
	AreasEn         string   `json:"areasEn"`
	Location        string   `json:"location"`
	LocationEn      string   `json:"locationEn"`
	Lat             float64  `json:"lat"`
	Lng             float64  `json:"lng"`
	ThumbnailURL    string   `json:"thumbnailUrl"`
	PhotoURLs       []string `json:"photoUrls"`
	CompletionYears string   `json:"completionYears"`

	// Assembled display strings, one per language. Populated during search
	// hydration, empty when architect lookups degrade.
	ArchitectsJa string `json:"architectsJa"`
	ArchitectsEn string `json:"architectsEn"`
}

// IndividualArchitect is a single person in the architect registry.
type IndividualArchitect struct {
	ID     int64  `json:"id"`
	NameJa string `json:"nameJa"`
	NameEn string `json:"nameEn"`
}

// ArchitectComposition links an architect group to one of its members.
// A group with a single member is the common case; named collectives
// (firms, units) carry several rows ordered by OrderIndex.
type ArchitectComposition struct {
	ArchitectID           int64 `json:"architectId"`
	IndividualArchitectID int64 `json:"individualArchitectId"`
	OrderIndex            int   `json:"orderIndex"`
}

// BuildingArchitect credits an architect group on a building.
// ArchitectOrder defines the display order when several groups are credited.
type BuildingArchitect struct {
	BuildingID     int64 `json:"buildingId"`
	ArchitectID    int64 `json:"architectId"`
	ArchitectOrder int   `json:"architectOrder"`
}

// Language selects which set of text fields is rendered to the client.
type Language string

const (
	LanguageJa Language = "ja"
	LanguageEn Language = "en"
)

// ParseLanguage maps a query-string value to a Language, defaulting to ja.
func ParseLanguage(s string) Language {
	if s == string(LanguageEn) {
		return LanguageEn
	}
	return LanguageJa
}
