package entity

// Account учётная запись оператора
type Account struct {
	ID           string // логин
	Name         string // отображаемое имя
	Password     string
	NeedPassword bool
	IsAdmin      bool
}
