package importer

import "fmt"

// Rejection is the reason a row was refused. Its text is shown to the user as is.
type Rejection string

func (r Rejection) Error() string { return string(r) }

func rejectf(format string, args ...any) Rejection {
	return Rejection(fmt.Sprintf(format, args...))
}

func columnCountMismatch(got, want int) Rejection {
	return rejectf("Le nombre de colonnes de cette ligne est incorrect: %d colonne(s) au lieu de %d attendue(s)", got, want)
}

const (
	ErrLabelRequired       Rejection = "Le libellé ne peut pas être vide"
	ErrCodeRequired        Rejection = "Le code ne peut pas être vide"
	ErrDuplicateDepartment Rejection = "Il existe déjà un département avec ce code"
	ErrInvalidNonCount     Rejection = "La valeur indiquant si le nombre est non compté doit être oui ou non"

	ErrDuplicateObserver         Rejection = "Il existe déjà un observateur avec ce libellé"
	ErrDuplicateWeather          Rejection = "Il existe déjà une météo avec ce libellé"
	ErrDuplicateClass            Rejection = "Il existe déjà une classe avec ce libellé"
	ErrDuplicateSex              Rejection = "Il existe déjà un sexe avec ce libellé"
	ErrDuplicateAge              Rejection = "Il existe déjà un âge avec ce libellé"
	ErrDuplicateDistanceEstimate Rejection = "Il existe déjà une estimation de la distance avec ce libellé"
	ErrDuplicateNumberEstimate   Rejection = "Il existe déjà une estimation du nombre avec ce libellé"

	ErrDepartmentNotFound Rejection = "Le département n'existe pas"
	ErrInvalidTownCode    Rejection = "Le code de la commune doit être un entier compris entre 1 et 65535"
	ErrTownNameRequired   Rejection = "Le nom de la commune ne peut pas être vide"
	ErrDuplicateTown      Rejection = "Il existe déjà une commune avec ce code ou ce nom dans ce département"

	ErrTownNotFound          Rejection = "La commune n'existe pas dans ce département"
	ErrLocalityNameRequired  Rejection = "Le nom du lieu-dit ne peut pas être vide"
	ErrDuplicateLocality     Rejection = "Il existe déjà un lieu-dit avec ce nom dans cette commune"
	ErrInvalidLatitude       Rejection = "La latitude du lieu-dit n'est pas un nombre valide"
	ErrInvalidLongitude      Rejection = "La longitude du lieu-dit n'est pas un nombre valide"
	ErrInvalidAltitude       Rejection = "L'altitude du lieu-dit doit être un entier compris entre 0 et 65535"
	ErrIncompleteCoordinates Rejection = "Les coordonnées doivent comporter une latitude, une longitude et une altitude"

	ErrClassNotFound          Rejection = "La classe de cette espèce n'existe pas"
	ErrSpeciesCodeRequired    Rejection = "Le code de l'espèce ne peut pas être vide"
	ErrSpeciesNameRequired    Rejection = "Les noms français et scientifique de l'espèce ne peuvent pas être vides"
	ErrDuplicateSpeciesCode   Rejection = "Il existe déjà une espèce avec ce code"
	ErrDuplicateSpeciesFrench Rejection = "Il existe déjà une espèce avec ce nom français"
	ErrDuplicateSpeciesLatin  Rejection = "Il existe déjà une espèce avec ce nom scientifique"

	ErrInvalidBreeding      Rejection = "Le statut nicheur doit être vide, possible, probable ou certain"
	ErrDuplicateBehavior    Rejection = "Il existe déjà un comportement avec ce code ou ce libellé"
	ErrDuplicateEnvironment Rejection = "Il existe déjà un milieu avec ce code ou ce libellé"

	ErrObserverNotFound         Rejection = "L'observateur n'existe pas"
	ErrAssociateNotFound        Rejection = "Au moins un des observateurs associés n'existe pas"
	ErrInvalidDate              Rejection = "La date doit être au format jj/mm/aaaa"
	ErrInvalidTime              Rejection = "L'heure doit être au format hh:mm"
	ErrInvalidDuration          Rejection = "La durée doit être au format hh:mm"
	ErrLocalityNotFound         Rejection = "Le lieu-dit n'existe pas dans cette commune"
	ErrWeatherNotFound          Rejection = "Au moins une des météos n'existe pas"
	ErrSpeciesNotFound          Rejection = "L'espèce n'existe pas"
	ErrSexNotFound              Rejection = "Le sexe n'existe pas"
	ErrAgeNotFound              Rejection = "L'âge n'existe pas"
	ErrNumberEstimateNotFound   Rejection = "L'estimation du nombre n'existe pas"
	ErrNumberRequired           Rejection = "Le nombre d'individus doit être un entier positif"
	ErrNumberForbidden          Rejection = "Le nombre d'individus doit être vide quand l'estimation est non comptée"
	ErrDistanceEstimateNotFound Rejection = "L'estimation de la distance n'existe pas"
	ErrDistanceWithoutEstimate  Rejection = "Une distance ne peut pas être renseignée sans estimation de la distance"
	ErrInvalidDistance          Rejection = "La distance doit être un entier positif"
	ErrInvalidRegroupment       Rejection = "Le numéro de regroupement doit être un entier positif"
	ErrBehaviorNotFound         Rejection = "Au moins un des comportements n'existe pas"
	ErrTooManyBehaviors         Rejection = "Une donnée ne peut pas avoir plus de 6 comportements"
	ErrEnvironmentNotFound      Rejection = "Au moins un des milieux n'existe pas"
	ErrTooManyEnvironments      Rejection = "Une donnée ne peut pas avoir plus de 4 milieux"
	ErrRepeatedValue            Rejection = "Une même valeur ne peut pas être indiquée plusieurs fois dans une liste"
	ErrCommentTooLong           Rejection = "Le commentaire ne peut pas dépasser 1000 caractères"
	ErrDuplicateObservation     Rejection = "Une donnée identique existe déjà"
)

func tooLong(field string, limit int) Rejection {
	return rejectf("%s ne peut pas dépasser %d caractères", field, limit)
}
