package users

type Repo interface {
	Insert(account *Account) error
	GetByEmail(email string) (*Account, error)
	GetByID(id string) (*Account, error)
	SetPassword(id, passwordHash string) error
}
