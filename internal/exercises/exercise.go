package exercises

import "time"

const (
	MuscleGroupLegs      = "legs"
	MuscleGroupBack      = "back"
	MuscleGroupChest     = "chest"
	MuscleGroupShoulders = "shoulders"
	MuscleGroupArms      = "arms"
	MuscleGroupCore      = "core"
)

var MuscleGroups = []string{
	MuscleGroupLegs,
	MuscleGroupBack,
	MuscleGroupChest,
	MuscleGroupShoulders,
	MuscleGroupArms,
	MuscleGroupCore,
}

// Exercise is a single logged set.
type Exercise struct {
	ID          int               `json:"id"`
	UserID      int               `json:"userId"`
	ExerciseID  string            `json:"exerciseId" validate:"required,max=64"`
	MuscleGroup string            `json:"muscleGroup" validate:"required,oneof=legs back chest shoulders arms core"`
	Kilos       int               `json:"kilos" validate:"gte=0,lte=1000"`
	Reps        int               `json:"reps" validate:"gte=0,lte=1000"`
	CreatedAt   time.Time         `json:"createdAt"`
	Metadata    map[string]string `json:"metadata"`
}
