package domain

// Lens - идентификатор интерпретационной линзы.
type Lens string

const (
	LensTherapist     Lens = "therapist"
	LensPhilosophical Lens = "philosophical"
	LensCultural      Lens = "cultural"
	LensSpiritual     Lens = "spiritual"
	LensSociological  Lens = "sociological"
)

// Lenses перечисляет все известные линзы в порядке отображения.
var Lenses = []Lens{LensTherapist, LensPhilosophical, LensCultural, LensSpiritual, LensSociological}

// Valid сообщает, известна ли линза.
func (l Lens) Valid() bool {
	for _, known := range Lenses {
		if l == known {
			return true
		}
	}
	return false
}
