// Package commands implements the storagedemo CLI's command tree: one
// parent command per backend (null, disk, dynamodb, postgres, sqlite), each
// carrying run/list/scan/force-unlock/wipe subcommands against that backend.
package commands

import "encoding/json"

// demoItem is the payload every storagedemo backend stores: a JSON object
// tracking how many times it has been claimed and by whom last.
type demoItem struct {
	Counter int    `json:"counter"`
	LastWho string `json:"last_who"`
}

func (i demoItem) Serialize() ([]byte, error) {
	return json.Marshal(i)
}

func deserializeDemoItem(data []byte) (demoItem, error) {
	var i demoItem
	err := json.Unmarshal(data, &i)
	return i, err
}

func newDemoItem() demoItem {
	return demoItem{}
}
