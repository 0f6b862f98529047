package validation

import (
	"fmt"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
)

const CurrentSchemaVersion = 1

// upgrade moves a document from version v to v+1.
type upgrade func(model.AppData) model.AppData

// upgrades is keyed by the version an upgrade starts from.
var upgrades = map[int]upgrade{}

// MigrateAppData upgrades data to CurrentSchemaVersion one version at a time.
func MigrateAppData(data model.AppData) (model.AppData, error) {
	return migrate(data, upgrades, CurrentSchemaVersion)
}

func migrate(data model.AppData, steps map[int]upgrade, target int) (model.AppData, error) {
	if data.SchemaVersion < 1 {
		data.SchemaVersion = 1
	}
	if data.SchemaVersion > target {
		return model.AppData{}, fmt.Errorf("schema version %d is newer than supported version %d", data.SchemaVersion, target)
	}
	for data.SchemaVersion < target {
		step, ok := steps[data.SchemaVersion]
		if !ok {
			return model.AppData{}, fmt.Errorf("no upgrade from schema version %d", data.SchemaVersion)
		}
		from := data.SchemaVersion
		data = step(data)
		data.SchemaVersion = from + 1
	}
	return data, nil
}
