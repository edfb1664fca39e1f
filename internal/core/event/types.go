package event

// LevelLoaded is emitted after the active level changed.
type LevelLoaded struct {
	LevelID int32
	Name    string
}

// GameSaved is emitted after a snapshot was written.
type GameSaved struct {
	Slot   string
	Shapes int
	Bytes  int
}

// GameLoaded is emitted after a snapshot was applied.
type GameLoaded struct {
	Slot    string
	Version int32
	Shapes  int
	LevelID int32
}
