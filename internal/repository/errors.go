package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pgUniqueViolation = "23505"

// translateError はドライバのエラーをリポジトリのエラーに変換する。
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

// rowsAffected は更新・削除件数が1件以上かどうかを返す。
func rowsAffected(n int64, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// validID はidがハイフン区切りのUUIDかを返す。
// UUIDでない値をuuid列と比較するとPostgreSQLが22P02を返すため、問い合わせ前に弾く。
func validID(id string) bool {
	return len(id) == 36 && uuid.Validate(id) == nil
}
