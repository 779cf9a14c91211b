package catalog

import (
	"strings"

	"github.com/xxxsen/romcatalog/internal/model"
)

type field int

const (
	fieldNone field = iota
	fieldRomFile
	fieldTitle
	fieldScrapHint
	fieldSubFolder
	fieldEmulatorID
	fieldDescription
	fieldDeveloper
	fieldGenre
	fieldHasKorean
	fieldIsFavorite
	fieldIgnore
	fieldCoverImagePath
	fieldLogoImagePath
	fieldVideoPath
)

const (
	keyRomFile        = "romFile"
	keyTitle          = "title"
	keyScrapHint      = "scrapHint"
	keySubFolder      = "subFolder"
	keyEmulatorID     = "emulatorId"
	keyDescription    = "description"
	keyDeveloper      = "developer"
	keyGenre          = "genre"
	keyHasKorean      = "hasKorean"
	keyIsFavorite     = "isFavorite"
	keyIgnore         = "ignore"
	keyCoverImagePath = "coverImagePath"
	keyLogoImagePath  = "logoImagePath"
	keyVideoPath      = "videoPath"
)

// fieldTable maps lower-cased key names to record fields.
var fieldTable = map[string]field{
	strings.ToLower(keyRomFile):        fieldRomFile,
	strings.ToLower(keyTitle):          fieldTitle,
	strings.ToLower(keyScrapHint):      fieldScrapHint,
	strings.ToLower(keySubFolder):      fieldSubFolder,
	strings.ToLower(keyEmulatorID):     fieldEmulatorID,
	strings.ToLower(keyDescription):    fieldDescription,
	strings.ToLower(keyDeveloper):      fieldDeveloper,
	strings.ToLower(keyGenre):          fieldGenre,
	strings.ToLower(keyHasKorean):      fieldHasKorean,
	strings.ToLower(keyIsFavorite):     fieldIsFavorite,
	strings.ToLower(keyIgnore):         fieldIgnore,
	strings.ToLower(keyCoverImagePath): fieldCoverImagePath,
	strings.ToLower(keyLogoImagePath):  fieldLogoImagePath,
	strings.ToLower(keyVideoPath):      fieldVideoPath,
}

func lookupField(key string) (field, bool) {
	f, ok := fieldTable[strings.ToLower(key)]
	return f, ok
}

// parseBool treats a value as true when it starts with "true", ignoring case.
func parseBool(value string) bool {
	return len(value) >= 4 && strings.EqualFold(value[:4], "true")
}

func assign(rec *model.Record, f field, value string) {
	switch f {
	case fieldRomFile:
		rec.RomFile = value
	case fieldTitle:
		rec.Title = value
	case fieldScrapHint:
		rec.ScrapHint = value
	case fieldSubFolder:
		rec.SubFolder = strings.Trim(value, `/\`)
	case fieldEmulatorID:
		rec.EmulatorID = value
	case fieldDeveloper:
		rec.Developer = value
	case fieldGenre:
		rec.Genre = value
	case fieldHasKorean:
		rec.HasKorean = parseBool(value)
	case fieldIsFavorite:
		rec.IsFavorite = parseBool(value)
	case fieldIgnore:
		rec.Ignore = parseBool(value)
	case fieldCoverImagePath:
		rec.CoverImagePath = value
	case fieldLogoImagePath:
		rec.LogoImagePath = value
	case fieldVideoPath:
		rec.VideoPath = value
	}
}
