package models

type PromptMode string

const (
	ModePlanning PromptMode = "Planning"
	ModeBuilding PromptMode = "Building"
)

type PromptTemplate struct {
	ID    uint        `gorm:"primaryKey" json:"id" yaml:"-"`
	Title string      `gorm:"size:255;not null;unique" json:"title" yaml:"title"`
	Kind  FeatureKind `gorm:"size:16;not null" json:"kind" yaml:"kind"`
	Mode  PromptMode  `gorm:"size:16;not null;default:Planning" json:"mode" yaml:"mode"`
	Text  string      `gorm:"type:text;not null" json:"text" yaml:"prompt"`
}
