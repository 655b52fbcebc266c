package services

import "errors"

// ErrSearchFieldNotFound - поле поиска не найдено ни по одному шаблону
// и запасным координатам. Фатально для текущего номера, но не для батча.
var ErrSearchFieldNotFound = errors.New("champ de recherche introuvable - ajoutez un template ou configurez le fallback")

// ErrSnippetTimeout - визуальный маркер результата сниппета не появился
// за отведённое время.
var ErrSnippetTimeout = errors.New("resultat du snippet non detecte")

// ErrPageLoadTimeout - страница «Interlocuteur» не загрузилась.
var ErrPageLoadTimeout = errors.New("chargement de la page Interlocuteur non detecte")
