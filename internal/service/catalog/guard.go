package catalog

import "github.com/vladislavdragonenkov/catalog/internal/domain"

// resolveVersion выбирает ожидаемую версию: из запроса, если клиент её передал,
// иначе прочитанную в начале операции. Саму проверку делает хранилище атомарно.
func resolveVersion(current int64, expected *int64) int64 {
	if expected != nil {
		return *expected
	}
	return current
}

func (s *Service) observeConflict(aggregate string, err error) {
	if !domain.IsVersionConflict(err) {
		return
	}
	s.metrics.RecordVersionConflict(aggregate)
	s.logger.WithField("aggregate", aggregate).Warn("stale write rejected")
}
